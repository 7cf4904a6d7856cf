package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/demo"
	"github.com/pavelanni/chemquiz/internal/model"
	"github.com/pavelanni/chemquiz/internal/quiz"
	"github.com/pavelanni/chemquiz/internal/store"
)

func addSourceFlags(f *pflag.FlagSet) {
	f.StringP("catalog", "c", "", "Catalog data directory")
	f.String("db", "", "SQLite database with an imported catalog")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func quizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Print one quiz item",
		RunE:  runQuiz,
	}
	f := cmd.Flags()
	addSourceFlags(f)
	f.String("file", "", "Quiz over a single compound data file")
	f.String("mode", string(model.ModeNameToStructure), "Quiz mode (name_to_structure, structure_to_name)")
	f.IntP("option-count", "n", demo.OptionCount, "Answer options")
	f.StringSliceP("path", "p", nil, "Category path segments (repeatable)")
	f.Uint64("seed", 0, "Random seed (0 picks one)")
	f.Bool("json", false, "Print the item as JSON")
	addLogFlags(f)
	return cmd
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	var compounds []model.Compound
	path := v.GetStringSlice("path")
	if file := v.GetString("file"); file != "" {
		var err error
		compounds, err = catalog.LoadCompoundFile(file)
		if err != nil {
			return err
		}
	} else {
		cat, _, err := loadCatalog(v)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if len(path) == 0 {
			compounds = cat.AllCompounds()
		} else if compounds, err = cat.CompoundsFor(path); err != nil {
			return err
		}
	}

	mode, ok := model.ParseQuizMode(v.GetString("mode"))
	if !ok {
		mode = model.QuizMode(v.GetString("mode"))
	}

	seed := v.GetUint64("seed")
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	item, err := quiz.Generate(rng, compounds, mode, v.GetInt("option-count"))
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}

	hint := ""
	if c, ok := quiz.FindPromptCompound(compounds, item); ok {
		hint, _ = quiz.Hint(c)
	}
	printQuiz(out, item, catalog.FormatPath(path), hint, seed)
	return nil
}

func printQuiz(w io.Writer, item model.QuizItem, category, hint string, seed uint64) {
	heading := "Choose the correct structure"
	if item.Mode == model.ModeStructureToName {
		heading = "Choose the correct name"
	}
	fmt.Fprintf(w, "%s\n", heading)
	fmt.Fprintf(w, "Category: %s\n\n", category)
	fmt.Fprintf(w, "  %s\n\n", item.Prompt)
	for i, o := range item.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, o)
	}
	fmt.Fprintf(w, "\nAnswer: %d\n", item.CorrectIndex+1)
	if hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
	fmt.Fprintf(w, "Seed: %d\n", seed)
}

func pathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List category paths in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)

			cat, _, err := loadCatalog(v)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			for _, p := range cat.AvailablePaths() {
				fmt.Fprintln(cmd.OutOrStdout(), catalog.FormatPath(p))
			}
			return nil
		},
	}
	addSourceFlags(cmd.Flags())
	addLogFlags(cmd.Flags())
	return cmd
}

func manifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build or inspect catalog manifests",
	}

	build := &cobra.Command{
		Use:   "build",
		Short: "Generate a manifest from a catalog directory",
		RunE:  runManifestBuild,
	}
	f := build.Flags()
	f.StringP("catalog", "c", "", "Catalog data directory (required)")
	f.String("base", "", "Prefix for file references in the manifest")
	f.StringP("output", "o", "-", "Output file path (- for stdout); .yaml/.yml writes YAML")
	addLogFlags(f)
	_ = build.MarkFlagRequired("catalog")

	leaves := &cobra.Command{
		Use:   "leaves <manifest>",
		Short: "Print the selectable datasets of a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			m, err := catalog.LoadManifest(args[0])
			if err != nil {
				return err
			}
			list := m.Leaves()
			catalog.SortLeaves(list)
			for _, l := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", catalog.FormatPath(l.Path), l.File)
			}
			return nil
		},
	}
	addLogFlags(leaves.Flags())

	cmd.AddCommand(build, leaves)
	return cmd
}

func runManifestBuild(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	m, err := catalog.BuildManifest(v.GetString("catalog"), v.GetString("base"))
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}

	outPath := v.GetString("output")
	data, err := encodeManifest(m, outPath)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func encodeManifest(m *catalog.Manifest, outPath string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal YAML: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a catalog directory into the SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)

			db, err := store.New(v.GetString("db"))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if _, err := db.ImportDirectory(v.GetString("catalog"), v.GetBool("force")); err != nil {
				return fmt.Errorf("import catalog: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("catalog", "c", "", "Catalog data directory (required)")
	f.String("db", "chemquiz.db", "SQLite database path")
	f.Bool("force", false, "Import even when the directory is unchanged")
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}
