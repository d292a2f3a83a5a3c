package fixtures

import (
	"context"
	"fmt"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/xexternal"
)

// AttrInfoRead loads oid's record into cache, mirroring
// heap_attrinfo_read_dbvalues. cache must be a *map[int]*regu.DBValue,
// populated in place so repeated AttrValueLocate calls against the same
// cache see consistent values within one evaluation.
func (e *Engine) AttrInfoRead(ctx context.Context, oid xexternal.OID, record []byte, cache any) error {
	m, ok := cache.(*map[int]*regu.DBValue)
	if !ok {
		return fmt.Errorf("fixtures: AttrInfoRead: cache must be *map[int]*regu.DBValue, got %T", cache)
	}
	*m = decodeRecord(record)
	return nil
}

// AttrValueLocate returns attrID's value from cache, mirroring
// heap_attrvalue_locate.
func (e *Engine) AttrValueLocate(cache any, attrID int) (*regu.DBValue, error) {
	m, ok := cache.(*map[int]*regu.DBValue)
	if !ok {
		return nil, fmt.Errorf("fixtures: AttrValueLocate: cache must be *map[int]*regu.DBValue, got %T", cache)
	}
	v, found := (*m)[attrID]
	if !found {
		return &regu.DBValue{IsNull: true}, nil
	}
	return v, nil
}

// IsObjectNotNull reports whether oid has a live row in heap_objects,
// mirroring heap_is_object_not_null.
func (e *Engine) IsObjectNotNull(ctx context.Context, oid xexternal.OID) (bool, error) {
	if oid.IsNull() {
		return false, nil
	}
	var count int
	err := e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM heap_objects WHERE page_id = ? AND slot_id = ? AND vol_id = ?`,
		oid.PageID, oid.SlotID, oid.VolID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("fixtures: IsObjectNotNull: %w", err)
	}
	return count > 0, nil
}

// GetRecord fetches oid's raw record bytes, the fixture's stand-in for
// whatever scan/fetch step a real heap layer uses to produce the record
// byte slice AttrInfoRead consumes.
func (e *Engine) GetRecord(ctx context.Context, oid xexternal.OID) ([]byte, error) {
	var record string
	err := e.db.QueryRowContext(ctx,
		`SELECT record FROM heap_objects WHERE page_id = ? AND slot_id = ? AND vol_id = ?`,
		oid.PageID, oid.SlotID, oid.VolID,
	).Scan(&record)
	if err != nil {
		return nil, fmt.Errorf("fixtures: GetRecord: %w", err)
	}
	return []byte(record), nil
}
