package commands

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/presentation/cli/output"
)

// NewCacheCmd creates the cache management command.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the prompt cache",
		Long: `Inspect and manage the prompt response cache.

The cache stores model completions keyed by a fingerprint of the prompt and
serves them for identical prompts, so re-running on unchanged code makes no
model calls. Entries never expire; clear the cache to start over.`,
	}

	cmd.AddCommand(NewCacheStatsCmd())
	cmd.AddCommand(NewCacheListCmd())
	cmd.AddCommand(NewCacheShowCmd())
	cmd.AddCommand(NewCacheClearCmd())
	cmd.AddCommand(NewCachePathCmd())

	return cmd
}

// cacheStore returns the configured entry store, or nil after printing a
// warning when caching is disabled.
func cacheStore() (ports.EntryStore, *output.Formatter, error) {
	container := GetContainer()
	if container == nil {
		return nil, nil, errNotInitialized
	}

	formatter := GetFormatter()
	s := container.Store()
	if s == nil {
		_ = formatter.Warning("Cache is not enabled")
	}
	return s, formatter, nil
}

// NewCacheStatsCmd creates the cache stats command.
func NewCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Long:  `Display the number, size and age of stored cache entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, formatter, err := cacheStore()
			if err != nil || s == nil {
				return err
			}

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(stats)
			}

			_ = formatter.Header("Cache Statistics")
			_ = formatter.Item("Backend", stats.Backend)
			_ = formatter.Item("Location", stats.Location)
			_ = formatter.Item("Entries", fmt.Sprintf("%d", stats.TotalEntries))
			_ = formatter.Item("Size", formatCacheBytes(stats.TotalSize))
			if !stats.OldestEntry.IsZero() {
				_ = formatter.Item("Oldest", formatCacheDuration(time.Since(stats.OldestEntry))+" ago")
				_ = formatter.Item("Newest", formatCacheDuration(time.Since(stats.NewestEntry))+" ago")
			}
			return nil
		},
	}
}

// NewCacheListCmd creates the cache list command.
func NewCacheListCmd() *cobra.Command {
	var pattern string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached entries",
		Long:  `List entries in the prompt cache with optional filtering by fingerprint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, formatter, err := cacheStore()
			if err != nil || s == nil {
				return err
			}

			ctx := cmd.Context()
			keys, err := s.Keys(ctx, pattern)
			if err != nil {
				return fmt.Errorf("failed to list cache keys: %w", err)
			}

			shown := keys
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}

			entries := make([]*ports.CacheEntry, 0, len(shown))
			for _, fp := range shown {
				entry, err := s.Get(ctx, fp)
				if err != nil {
					if errors.Is(err, ports.ErrCorruptEntry) {
						entries = append(entries, &ports.CacheEntry{Fingerprint: fp})
					}
					continue
				}
				entries = append(entries, entry)
			}

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(map[string]any{
					"total":   len(keys),
					"entries": entries,
				})
			}

			if len(keys) == 0 {
				_ = formatter.Info("No cached entries found")
				return nil
			}

			table := output.TableData{
				Columns: []output.TableColumn{
					{Header: "FINGERPRINT"},
					{Header: "MODEL"},
					{Header: "TOKENS", Align: output.AlignRight},
					{Header: "AGE", Align: output.AlignRight},
				},
			}
			for _, e := range entries {
				if e.Completion == nil {
					table.Rows = append(table.Rows, []string{truncateCacheKey(e.Fingerprint, 16), "(unreadable)", "", ""})
					continue
				}
				table.Rows = append(table.Rows, []string{
					truncateCacheKey(e.Fingerprint, 16),
					e.Completion.Model,
					fmt.Sprintf("%d", e.Completion.TotalTokens()),
					formatCacheDuration(time.Since(e.CreatedAt)),
				})
			}
			if err := formatter.Table(table); err != nil {
				return err
			}
			if len(keys) > len(shown) {
				_ = formatter.Info("... and %d more entries", len(keys)-len(shown))
			}
			_ = formatter.Info("Total: %d entries", len(keys))
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "filter fingerprints by regular expression")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to display (0 for all)")

	return cmd
}

// NewCacheShowCmd creates the cache show command.
func NewCacheShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <fingerprint>",
		Short: "Show one cached completion",
		Long:  `Print the stored completion for a fingerprint. A unique prefix is enough.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, formatter, err := cacheStore()
			if err != nil || s == nil {
				return err
			}

			ctx := cmd.Context()
			fp, err := resolveFingerprint(cmd, s, args[0])
			if err != nil {
				return err
			}
			entry, err := s.Get(ctx, fp)
			if err != nil {
				return fmt.Errorf("failed to read entry %s: %w", fp, err)
			}

			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(entry)
			}

			c := entry.Completion
			_ = formatter.Header("Cache Entry")
			_ = formatter.Item("Fingerprint", entry.Fingerprint)
			_ = formatter.Item("Model", c.Model)
			_ = formatter.Item("Created", entry.CreatedAt.Format(time.RFC3339))
			_ = formatter.Item("Tokens", fmt.Sprintf("%d in, %d out", c.InputTokens, c.OutputTokens))
			if c.FinishReason != "" {
				_ = formatter.Item("Finish", c.FinishReason)
			}
			_ = formatter.Println("")
			_ = formatter.Println("%s", c.Content)
			return nil
		},
	}
}

// resolveFingerprint expands a fingerprint prefix to the single stored key it
// matches.
func resolveFingerprint(cmd *cobra.Command, s ports.EntryStore, prefix string) (string, error) {
	keys, err := s.Keys(cmd.Context(), "^"+EscapePattern(prefix))
	if err != nil {
		return "", fmt.Errorf("failed to list cache keys: %w", err)
	}
	switch len(keys) {
	case 0:
		return "", fmt.Errorf("no cache entry matches %q", prefix)
	case 1:
		return keys[0], nil
	default:
		return "", fmt.Errorf("%q matches %d entries", prefix, len(keys))
	}
}

// NewCacheClearCmd creates the cache clear command.
func NewCacheClearCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache",
		Long:  `Delete every entry from the prompt cache. The next run calls the model for every prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, formatter, err := cacheStore()
			if err != nil || s == nil {
				return err
			}

			if !confirm {
				_ = formatter.Warning("This will clear ALL cached entries.")
				_ = formatter.Info("Use --confirm to proceed.")
				return nil
			}

			if err := s.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			_ = formatter.Success("Cache cleared successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm clearing all cache entries")

	return cmd
}

// NewCachePathCmd creates the cache path command.
func NewCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, formatter, err := cacheStore()
			if err != nil || s == nil {
				return err
			}

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}
			if formatter.Format() == output.FormatJSON {
				return formatter.JSON(map[string]string{"backend": stats.Backend, "location": stats.Location})
			}
			return formatter.Println("%s", stats.Location)
		},
	}
}

// Helper functions for cache formatting

func formatCacheBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func formatCacheDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d >= time.Second:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}

func truncateCacheKey(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// EscapePattern escapes special regex characters in a string.
func EscapePattern(s string) string {
	return regexp.QuoteMeta(s)
}
