package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookid-server/internal/isbn"
)

// isbnInfo is the offline analysis of one ISBN string.
type isbnInfo struct {
	Input         string    `json:"input"`
	Normalized    string    `json:"normalized"`
	Kind          isbn.Kind `json:"kind"`
	Key           string    `json:"key"`
	ChecksumValid bool      `json:"checksum_valid"`
	Error         string    `json:"error,omitempty"`
}

func describeISBN(raw string) isbnInfo {
	info := isbnInfo{
		Input:         raw,
		Normalized:    isbn.Normalize(raw),
		Kind:          isbn.KindOf(raw),
		Key:           isbn.Key(raw),
		ChecksumValid: isbn.ChecksumValid(raw),
	}
	if err := isbn.Validate(raw); err != nil {
		info.Error = err.Error()
	}
	return info
}

func newISBNCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "isbn",
		Short: "Inspect ISBNs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check ISBN...",
		Short: "Normalize ISBNs and show their equivalence keys",
		Long: `Normalize each ISBN, classify it and print the key used to detect
collisions. Checksums are shown for information only; the catalog accepts
ISBNs with invalid check digits.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]isbnInfo, 0, len(args))
			invalid := 0
			for _, raw := range args {
				info := describeISBN(raw)
				if info.Error != "" {
					invalid++
				}
				infos = append(infos, info)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := printJSON(out, infos); err != nil {
					return err
				}
			} else {
				for _, info := range infos {
					printISBN(out, info)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d ISBNs rejected", invalid, len(args))
			}
			return nil
		},
	})

	return cmd
}

func printISBN(w io.Writer, info isbnInfo) {
	if info.Error != "" {
		fmt.Fprintf(w, "%s %s  %s\n", red("✗"), info.Input, red(info.Error))
		return
	}

	checksum := yellow("checksum mismatch")
	if info.ChecksumValid {
		checksum = green("checksum ok")
	}
	fmt.Fprintf(w, "%s %s\n", green("✓"), info.Input)
	fmt.Fprintf(w, "    Normalized: %s (%s)\n", info.Normalized, info.Kind)
	fmt.Fprintf(w, "    Key:        %s\n", info.Key)
	fmt.Fprintf(w, "    %s\n", checksum)
}
