// Command bptreeviz drives an in-memory string-keyed B+ tree from a script
// of insert/delete commands and prints the resulting leaf chain. It uses only
// the tree's Insert, Delete and ForEach; the internal node structure (root,
// children) is not printed.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	bptree "github.com/Ralphd42/bplus-tree"
)

var degree int

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bptreeviz [script]",
		Short: "Replay an insert/delete script against an in-memory B+ tree",
		Long: "bptreeviz reads a line-oriented script of \"insert <key> <value>\" and\n" +
			"\"delete <key>\" commands, applies them to an in-memory tree, and prints\n" +
			"the final leaf chain in ascending key order.",
		Args: cobra.MaximumNArgs(1),
		RunE: runViz,
	}
	cmd.Flags().IntVar(&degree, "degree", 3, "tree degree (minimum 3)")
	return cmd
}

func runViz(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	var src *os.File
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		src = f
	} else {
		src = os.Stdin
	}

	tree, err := bptree.NewInMemory[string](degree)
	if err != nil {
		return fmt.Errorf("create tree: %w", err)
	}

	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			logger.Debug("skipping blank line", zap.Int("line", lineNo))
			continue
		}
		if err := applyLine(tree, logger, lineNo, line); err != nil {
			logger.Warn("skipping line", zap.Int("line", lineNo), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	return printLeafChain(tree)
}

func applyLine(tree *bptree.Tree[string], logger *zap.Logger, lineNo int, line string) error {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 3 && fields[0] == "insert":
		key, value := fields[1], fields[2]
		if err := tree.Insert(key, value); err != nil {
			return fmt.Errorf("insert %q: %w", key, err)
		}
		logger.Info("inserted", zap.String("key", key), zap.String("value", value))
		return nil
	case len(fields) == 2 && fields[0] == "delete":
		key := fields[1]
		if err := tree.Delete(key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		logger.Info("deleted", zap.String("key", key))
		return nil
	default:
		return fmt.Errorf("malformed command %q", line)
	}
}

func printLeafChain(tree *bptree.Tree[string]) error {
	i := 0
	err := tree.ForEach(func(key string, p any) bool {
		fmt.Printf("%d: %s = %v\n", i, key, p)
		i++
		return true
	})
	if err != nil {
		return fmt.Errorf("walk leaf chain: %w", err)
	}
	if i == 0 {
		fmt.Println("(empty)")
	}
	return nil
}
