package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cubrid/qxengine/internal/regu"
	"github.com/cubrid/qxengine/internal/sqcache"
)

var cacheStatsCmd = &cobra.Command{
	Use:   "cache-stats <size-bytes> <key>...",
	Short: "run a throwaway subquery cache through one put/get cycle and print its stats",
	Long: "Builds a fresh, unshared sqcache.Cache sized at size-bytes, stores one " +
		"result under the given key values, looks it up again, and prints the " +
		"resulting hit/miss/size counters. A demo of the cache's self-disable " +
		"accounting, not a way to inspect a running core's actual cache " +
		"(the core keeps one cache per correlated subquery, not one globally).",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sizeMax, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("qxenginectl: invalid size-bytes %q: %w", args[0], err)
		}

		key := make([]*regu.DBValue, 0, len(args)-1)
		for _, a := range args[1:] {
			key = append(key, &regu.DBValue{Data: a})
		}

		c := sqcache.New(sizeMax, cliValueDescriptor{})
		defer c.Destroy()

		if _, hit := c.Get(key); hit {
			return fmt.Errorf("qxenginectl: unexpected hit on an empty cache")
		}
		if err := c.Put(key, &sqcache.Result{Kind: regu.KindConstant, Constant: key[0]}); err != nil {
			return fmt.Errorf("qxenginectl: put: %w", err)
		}
		c.Get(key)

		stats := c.Stats()
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"enabled":  stats.Enabled,
				"hits":     stats.Hits,
				"misses":   stats.Misses,
				"size":     stats.Size,
				"size_max": stats.SizeMax,
			})
		}
		fmt.Printf("enabled=%v hits=%d misses=%d size=%d size_max=%d\n",
			stats.Enabled, stats.Hits, stats.Misses, stats.Size, stats.SizeMax)
		return nil
	},
}
