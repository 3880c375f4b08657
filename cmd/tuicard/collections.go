package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuicard/internal/cards"
	"github.com/verte-zerg/tuicard/internal/collection"
	"github.com/verte-zerg/tuicard/internal/stats"
)

// searchCellWidth caps each column of search output.
const searchCellWidth = 40

func newCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections with their card counts",
		Args:  cobra.NoArgs,
		RunE:  runCollectionsCmd,
	}
}

func runCollectionsCmd(cmd *cobra.Command, _ []string) error {
	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	names := a.collections.Names()
	if len(names) == 0 {
		logErrln("No collections found. Add one with: tuicard import NAME FILE")
		return fmt.Errorf("no collections found")
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		list, err := a.collections.Cards(name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", len(list))})
	}
	return writeTable(cmd.OutOrStdout(), []string{"Collection", "Cards"}, rows, map[int]bool{1: true})
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print the raw card data of a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	text, err := a.collections.Select(args[0])
	if err != nil {
		return err
	}
	return writeLine(cmd.OutOrStdout(), text)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import NAME FILE|-",
		Short: "Save a collection from a CSV file or stdin",
		Long: "Save a collection from a file with one card per line.\n" +
			"Each line holds the source and target word separated by a comma or a semicolon.\n" +
			"An existing collection with the same name is replaced.",
		Args: cobra.ExactArgs(2),
		RunE: runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	name, source := args[0], args[1]
	text, err := readCardSource(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.collections.Save(cmd.Context(), name, text); err != nil {
		if errors.Is(err, collection.ErrValidation) {
			return fmt.Errorf("cannot save %q: %w", name, err)
		}
		return err
	}
	logErrf("Saved %q with %d cards\n", strings.TrimSpace(name), len(cards.Parse(text)))
	return nil
}

// readCardSource reads card text from path, or from in when path is "-".
func readCardSource(in io.Reader, path string) (string, error) {
	if path != "-" {
		text, err := cards.LoadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return text, nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("refusing to read cards from a terminal; pipe a file or pass a path")
	}
	text, err := cards.Read(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return text, nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCmd,
	}
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.collections.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	logErrf("Deleted %q\n", args[0])
	return nil
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search NAME [QUERY...]",
		Short: "Print the cards of a collection matching a query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchCmd,
	}
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	list, err := a.collections.Cards(args[0])
	if err != nil {
		return err
	}
	matches := cards.Filter(list, strings.Join(args[1:], " "))
	if len(matches) == 0 {
		logErrln("No matching cards.")
		return nil
	}
	rows := make([][]string, 0, len(matches))
	for _, c := range matches {
		rows = append(rows, []string{c.Source, c.Target})
	}
	return writeTable(cmd.OutOrStdout(), []string{"Source", "Target"}, stats.ClipRows(rows, searchCellWidth), nil)
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range stats.FormatTable(headers, rows, rightAlign) {
		if err := writeLine(w, line); err != nil {
			return err
		}
	}
	return nil
}
