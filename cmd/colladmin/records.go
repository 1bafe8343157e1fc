package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
	"github.com/kailas-cloud/colladmin/internal/usecase/crud"
	"github.com/kailas-cloud/colladmin/internal/usecase/display"
	"github.com/kailas-cloud/colladmin/internal/usecase/validation"
	"github.com/kailas-cloud/colladmin/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <collection>",
		Short: "Show inferred field types, columns and widgets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fallbacks []string
			s, _, err := a.session(items.Pagination{Limit: 1}, &fallbacks)
			if err != nil {
				return err
			}
			v, err := s.Select(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDescriptor(a.stdout, v)
			if len(fallbacks) > 0 {
				fmt.Fprintf(a.stdout, "\nno type rule matched, shown as text: %s\n", strings.Join(fallbacks, ", "))
			}
			return nil
		},
	}
}

func printDescriptor(w io.Writer, v browse.View) {
	if v.Descriptor.IsEmpty() {
		fmt.Fprintf(w, "%s: no fields (empty collection without schema)\n", v.Collection)
		return
	}
	if v.Synthesized {
		fmt.Fprintf(w, "%s: schema synthesized from a sample record\n\n", v.Collection)
	}
	primary := v.Descriptor.PrimaryName()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tLABEL\tTYPE\tWIDGET\tWIDTH\tREQUIRED")
	for i, f := range v.Descriptor.Fields() {
		col := v.Columns[i]
		widget := string(display.MapWidget(f))
		if f.Name() == primary {
			widget = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
			f.Name(), f.DisplayName(), f.SemanticType(), widget, formatWidth(col.Width), f.Required())
	}
	_ = tw.Flush()
}

func formatWidth(w display.Width) string {
	if w.Pixels == 0 {
		return string(w.Kind)
	}
	return fmt.Sprintf("%s (%dpx)", w.Kind, w.Pixels)
}

func newListCmd(a *app) *cobra.Command {
	var p items.Pagination
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records as a typed table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.session(p, nil)
			if err != nil {
				return err
			}
			v, err := s.Select(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecords(a.stdout, v)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&p.Limit, "limit", 0, "maximum number of records")
	f.IntVar(&p.Offset, "offset", 0, "records to skip")
	f.IntVar(&p.Page, "page", 0, "page number, 1-based")
	f.IntVar(&p.PerPage, "per-page", 0, "records per page")
	f.StringVar(&p.Sort, "sort", "", "field to sort by")
	f.StringVar(&p.Order, "order", "", "asc or desc")
	f.StringVar(&p.Filter, "filter", "", "substring filter")
	return cmd
}

func printRecords(w io.Writer, v browse.View) {
	if len(v.Records) == 0 {
		fmt.Fprintf(w, "%s: no records\n", v.Collection)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = strings.ToUpper(c.Header)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range v.Records {
		cells := make([]string, len(v.Columns))
		for i, c := range v.Columns {
			if val, ok := r.Get(c.Field); ok {
				cells[i] = display.FormatCell(val)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, item, err := a.openItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			o.OpenView(item)
			defer o.Close()
			printRecord(a.stdout, o.Descriptor(), item)
			return nil
		},
	}
}

func printRecord(w io.Writer, desc collection.Descriptor, r record.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range r.Keys() {
		label := field.Humanize(name)
		if f, ok := desc.FieldByName(name); ok {
			label = f.DisplayName()
		}
		val, _ := r.Get(name)
		fmt.Fprintf(tw, "%s\t%s\n", label, display.FormatCell(val))
	}
	_ = tw.Flush()
}

func newCreateCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <collection>",
		Short: "Validate and create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.orchestrator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := parseSets(o.Descriptor(), sets)
			if err != nil {
				return err
			}
			o.OpenCreate()
			if err := a.reportSubmit(o.SubmitCreate(cmd.Context(), data), o); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "created record in %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value, repeatable")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Validate and update a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, item, err := a.openItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			changes, err := parseSets(o.Descriptor(), sets)
			if err != nil {
				return err
			}
			data := item.ToMap()
			for k, v := range changes {
				data[k] = v
			}
			o.OpenEdit(item)
			if err := a.reportSubmit(o.SubmitEdit(cmd.Context(), data), o); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "updated %s/%s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value, repeatable")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, item, err := a.openItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			o.OpenDelete(item)
			if err := a.reportSubmit(o.ConfirmDelete(cmd.Context()), o); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

// orchestrator selects the collection and returns its CRUD orchestrator.
func (a *app) orchestrator(ctx context.Context, name string) (*crud.Orchestrator, error) {
	o, _, err := a.orchestratorWithClient(ctx, name)
	return o, err
}

func (a *app) orchestratorWithClient(ctx context.Context, name string) (*crud.Orchestrator, *items.Client, error) {
	s, c, err := a.session(items.Pagination{}, nil)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Select(ctx, name); err != nil {
		return nil, nil, err
	}
	o, err := s.Orchestrator()
	if err != nil {
		return nil, nil, err
	}
	return o, c, nil
}

// openItem fetches one record and types it with the collection descriptor.
func (a *app) openItem(ctx context.Context, name, id string) (*crud.Orchestrator, record.Record, error) {
	o, c, err := a.orchestratorWithClient(ctx, name)
	if err != nil {
		return nil, record.Record{}, err
	}
	env := items.New(c, name).Get(ctx, id)
	if !env.Success {
		return nil, record.Record{}, errors.New(env.Message)
	}
	return o, record.FromMap(o.Descriptor(), env.Data), nil
}

// reportSubmit prints field errors or the sheet-level message of a failed submit.
func (a *app) reportSubmit(err error, o *crud.Orchestrator) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fmt.Fprintf(a.stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return err
	}
	if msg := o.State().Message(); msg != "" {
		return errors.New(msg)
	}
	return err
}

// parseSets turns key=value flags into a payload, typing numbers and
// booleans by the field's semantic type. Values that do not parse are kept
// as strings so validation reports them.
func parseSets(desc collection.Descriptor, sets []string) (map[string]any, error) {
	data := make(map[string]any, len(sets))
	for _, s := range sets {
		key, val, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		data[key] = typedValue(desc, key, val)
	}
	return data, nil
}

func typedValue(desc collection.Descriptor, key, val string) any {
	f, ok := desc.FieldByName(key)
	if !ok || val == "" {
		return val
	}
	switch f.SemanticType() {
	case field.Number:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return n
		}
	case field.Boolean:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return val
}
