package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cubrid/qxengine/internal/pred"
	"github.com/cubrid/qxengine/internal/regu"
)

// constantSource resolves only *regu.Constant leaves, which is all a
// literal-vs-literal comparison demo ever needs from the Value Source
// collaborator — the same minimal role internal/pred's own tests give
// fakeValueSource.
type constantSource struct{}

func (constantSource) FetchPeekDBValue(v regu.Variable, _, _ any) (*regu.DBValue, error) {
	c, ok := v.(*regu.Constant)
	if !ok {
		return nil, fmt.Errorf("qxenginectl: eval only supports literal operands")
	}
	return c.Value, nil
}

var evalOps = map[string]pred.RelOp{
	"eq":  pred.RelEQ,
	"ne":  pred.RelNE,
	"lt":  pred.RelLT,
	"le":  pred.RelLE,
	"gt":  pred.RelGT,
	"ge":  pred.RelGE,
}

var evalCmd = &cobra.Command{
	Use:   "eval <lhs> <op> <rhs>",
	Short: "evaluate a three-valued literal comparison (op: eq|ne|lt|le|gt|ge)",
	Long: "Runs one COMP leaf through the predicate evaluator against two literal " +
		"operands, printing TRUE/FALSE/UNKNOWN. A demo of internal/pred's " +
		"3-valued logic with no query plan or storage backend behind it; " +
		"pass \"null\" for either operand to see the NULL-propagation rules.",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, ok := evalOps[args[1]]
		if !ok {
			return fmt.Errorf("qxenginectl: unknown op %q (want one of eq ne lt le gt ge)", args[1])
		}

		expr := &pred.CompTerm{
			Lhs: literalVariable(args[0]),
			Op:  op,
			Rhs: literalVariable(args[2]),
		}
		env := &pred.Env{
			ValueDesc: cliValueDescriptor{},
			Source:    constantSource{},
		}

		result := pred.Eval(context.Background(), env, expr)

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			return enc.Encode(map[string]any{
				"lhs":    args[0],
				"op":     args[1],
				"rhs":    args[2],
				"result": result.String(),
			})
		}
		fmt.Println(result)
		return nil
	},
}

// literalVariable turns a CLI string argument into a regu.Constant, with
// "null" (case-sensitive, matching the literal keyword rather than any
// quoted string) recognized as the SQL NULL literal and everything else
// parsed as an int64 when possible, falling back to text.
func literalVariable(s string) regu.Variable {
	if s == "null" {
		return &regu.Constant{Value: &regu.DBValue{IsNull: true}}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &regu.Constant{Value: &regu.DBValue{Data: n}}
	}
	return &regu.Constant{Value: &regu.DBValue{Data: s}}
}
