package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	kmertrie "github.com/stef4k/dna-sequence-postgres-extension"
)

var (
	logLevel string
	logFile  string
	log      zerolog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kmeridx",
		Short:         "build and query a DNA k-mer trie index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to this file, rotated")

	root.AddCommand(newLoadCmd(), newQueryCmd(), newStatsCmd(), newDumpCmd())
	return root
}

func setupLogging() error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("bad log level %q: %w", logLevel, err)
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if logFile != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
		})
	}
	log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}

func newLoadCmd() *cobra.Command {
	var (
		out      string
		window   int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "build an index from k-mers (one per line) or DNA sequences with --k",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			idx := kmertrie.New(
				kmertrie.WithPageSize(pageSize),
				kmertrie.WithLogger(log),
			)

			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 1<<20), 1<<24)
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, "#") {
					continue
				}
				if window > 0 {
					if err := loadWindows(idx, line, window); err != nil {
						return err
					}
					continue
				}
				k, err := kmertrie.ParseKmer(line)
				if err != nil {
					return err
				}
				if err := idx.Insert(k, uuid.New()); err != nil {
					return err
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}

			log.Info().Int("keys", idx.Size()).Msg("index built")
			return writeSnapshot(idx, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "index.cbor", "snapshot output path")
	cmd.Flags().IntVar(&window, "k", 0, "treat input lines as DNA sequences and index every k-mer of this length")
	cmd.Flags().IntVar(&pageSize, "page-size", 8192, "index page size in bytes")
	return cmd
}

func loadWindows(idx *kmertrie.Index, line string, k int) error {
	seq, err := kmertrie.ParseSequence(line)
	if err != nil {
		return err
	}
	kmers, err := seq.Kmers(k)
	if err != nil {
		return err
	}
	for kmer := range kmers {
		if err := idx.Insert(kmer, uuid.New()); err != nil {
			return err
		}
	}
	return nil
}

func newQueryCmd() *cobra.Command {
	var (
		in       string
		equal    string
		prefix   string
		contains string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "run equal, prefix or IUPAC-contains queries against a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := readSnapshot(in)
			if err != nil {
				return err
			}

			var preds []kmertrie.Predicate
			if equal != "" {
				p, err := kmertrie.PredicateFor(kmertrie.StrategyEqual, equal)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			if prefix != "" {
				p, err := kmertrie.PredicateFor(kmertrie.StrategyPrefix, prefix)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			if contains != "" {
				p, err := kmertrie.PredicateFor(kmertrie.StrategyContains, contains)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			if len(preds) == 0 {
				return fmt.Errorf("need at least one of --equal, --prefix, --contains")
			}

			matches, err := idx.Search(preds...)
			if err != nil {
				return err
			}
			for _, m := range matches {
				fmt.Printf("%s\t%s\n", m.Kmer, m.Ref)
			}
			log.Info().Int("matches", len(matches)).Msg("query done")
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "snapshot", "index.cbor", "snapshot input path")
	cmd.Flags().StringVar(&equal, "equal", "", "exact k-mer")
	cmd.Flags().StringVar(&prefix, "prefix", "", "k-mer prefix")
	cmd.Flags().StringVar(&contains, "contains", "", "IUPAC pattern")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print index shape statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := readSnapshot(in)
			if err != nil {
				return err
			}
			st := idx.Stats()
			fmt.Printf("keys:        %d\n", st.Keys)
			fmt.Printf("pages:       %d\n", st.Pages)
			fmt.Printf("inner nodes: %d\n", st.InnerNodes)
			fmt.Printf("leaf pages:  %d\n", st.LeafPages)
			fmt.Printf("max depth:   %d\n", st.MaxDepth)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "snapshot", "index.cbor", "snapshot input path")
	return cmd
}

func newDumpCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "write the page graph to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := readSnapshot(in)
			if err != nil {
				return err
			}
			idx.Dump(os.Stdout)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "snapshot", "index.cbor", "snapshot input path")
	return cmd
}

func writeSnapshot(idx *kmertrie.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := idx.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	log.Info().Str("path", path).Msg("snapshot written")
	return f.Close()
}

func readSnapshot(path string) (*kmertrie.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return kmertrie.ReadSnapshot(f)
}
