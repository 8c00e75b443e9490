package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/dbsmedya/formrows/internal/schema"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var tablesForm string

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables and fields of each form",
	Long: `Tables prints every table a form can be exported to, followed by the
form's field tree with the type of each field.

Example:
  formrows tables --config formrows.yaml --form household`,
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().StringVarP(&tablesForm, "form", "f", "",
		"Only show this form (default: all forms)")

	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	names := cfg.ListForms()
	if tablesForm != "" {
		names = []string{tablesForm}
	}
	sort.Strings(names)

	for i, name := range names {
		_, root, err := buildForm(cfg, name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(outputWriter)
		}
		printForm(outputWriter, name, root)
	}
	return nil
}

func printForm(w io.Writer, name string, root *schema.Field) {
	fmt.Fprintf(w, "%s %s\n", color.Bold.Sprint("Form:"), name)

	fmt.Fprintln(w, color.Bold.Sprint("Tables:"))
	for _, table := range root.Tables() {
		fmt.Fprintf(w, "  %s\n", color.Cyan.Sprint(table))
	}

	fmt.Fprintln(w, color.Bold.Sprint("Fields:"))
	fmt.Fprintf(w, "  %s\n", color.Cyan.Sprint(root.Name))
	printFields(w, root.Children(), "  ")
}

func printFields(w io.Writer, fields []*schema.Field, indent string) {
	for i, f := range fields {
		branch, next := "├─ ", "│  "
		if i == len(fields)-1 {
			branch, next = "└─ ", "   "
		}

		kind := color.Gray.Sprint(string(f.Kind))
		name := f.Name
		if f.Kind == schema.Repeat {
			name = color.Cyan.Sprint(name)
		}
		fmt.Fprintf(w, "%s%s%s %s\n", indent, branch, name, kind)

		if f.Kind.IsContainer() {
			printFields(w, f.Children(), indent+next)
		}
	}
}
