package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/output"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
	"github.com/vegasq/parsearch/search"
)

type queryOptions struct {
	request    string
	groups     []string
	values     []string
	sorts      []string
	terms      []string
	params     []string
	maxResults []int
	detail     bool
	flat       bool
	zone       string
	format     string
	timeout    time.Duration
}

func newQueryCmd(a *app) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <source>",
		Short: "Run one search to completion and print its results",
		Long: `Run one search against a configured data source or a parquet file/glob.

The table is described either by a JSON search request (--request) or by
flags: each --group adds a group depth, each --value adds a column.`,
		Example: `  parsearch query logs.parquet --group host --value 'n=count()' --sort n:desc
  parsearch query 'logs/*.parquet' --term 'status EQUALS 500' --group status
  parsearch query weblogs --request search.json -f csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.request, "request", "r", "", "JSON search request file, - for stdin")
	f.StringArrayVarP(&opts.groups, "group", "g", nil, "group by a column or expression, one depth per flag")
	f.StringArrayVarP(&opts.values, "value", "v", nil, "value column as name=expression or expression; without --group it is evaluated per row")
	f.StringArrayVarP(&opts.sorts, "sort", "s", nil, "sort by column name, optionally suffixed :desc")
	f.StringArrayVarP(&opts.terms, "term", "t", nil, `filter term "field CONDITION value", all terms must match`)
	f.StringArrayVarP(&opts.params, "param", "p", nil, "query parameter key=value substituted for ${key}")
	f.IntSliceVar(&opts.maxResults, "max-results", nil, "rows per group depth, e.g. 100,10")
	f.BoolVar(&opts.detail, "detail", false, "show the rows below the deepest group")
	f.BoolVar(&opts.flat, "flat", false, "expand every group into flat rows")
	f.StringVar(&opts.zone, "zone", "", "IANA time zone for relative dates and local formatting")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: "+strings.Join(output.Formats, ", "))
	f.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "how long to wait for the search to complete")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, sourceArg string, opts *queryOptions) error {
	formatter, err := output.New(opts.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	catalog := a.cfg.Catalog()
	ref, err := resolveSource(catalog, sourceArg)
	if err != nil {
		return err
	}

	var req *query.SearchRequest
	if opts.request != "" {
		req, err = readRequest(cmd.InOrStdin(), opts.request)
	} else {
		req, err = opts.build()
	}
	if err != nil {
		return err
	}
	if req.Query == nil {
		req.Query = &query.Query{}
	}
	req.Query.DataSource = ref
	req.Key = query.QueryKey{UUID: uuid.NewString()}
	req.Incremental = false
	timeout := opts.timeout.Milliseconds()
	req.Timeout = &timeout
	if opts.zone != "" {
		req.DateTimeLocale = opts.zone
	}

	source := reader.NewParquetSource(catalog)
	registry, err := source.Registry(ref)
	if err != nil {
		return err
	}
	if err := expression.Validate(req.Query.ResolvedExpression(), registry); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	cache, err := search.NewCache(source, a.cacheConfig(), a.logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	svc := search.NewService(cache, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	resp, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return errors.New(strings.Join(resp.Errors, "; "))
	}
	if !resp.Complete {
		return fmt.Errorf("search did not complete within %s", opts.timeout)
	}
	a.logger.Debug("search finished", "elapsed", time.Since(start), "results", len(resp.Results))

	for _, res := range resp.Results {
		t, err := output.FromResult(res, resultFields(req, res.Component()))
		if err != nil {
			return err
		}
		if err := formatter.Format(t); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}
	return nil
}

func readRequest(stdin io.Reader, path string) (*query.SearchRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req query.SearchRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse search request %s: %w", path, err)
	}
	if len(req.ResultRequests) == 0 {
		return nil, errors.New("search request has no result requests")
	}
	return &req, nil
}

// resultFields returns the columns of the last table of a component
func resultFields(req *query.SearchRequest, id string) []query.Field {
	for _, rr := range req.ResultRequests {
		if rr.ComponentID == id && len(rr.Mappings) > 0 {
			return rr.Mappings[len(rr.Mappings)-1].Fields
		}
	}
	return nil
}

// build turns the table flags into a single component request
func (o *queryOptions) build() (*query.SearchRequest, error) {
	var fields []query.Field
	for depth, g := range o.groups {
		group := depth
		fields = append(fields, query.Field{Name: g, Expression: columnExpression(g), Group: &group})
	}
	for _, v := range o.values {
		name, expr, ok := strings.Cut(v, "=")
		if !ok || strings.Contains(name, "(") || strings.Contains(name, "$") {
			name, expr = v, v
		}
		fields = append(fields, query.Field{Name: strings.TrimSpace(name), Expression: strings.TrimSpace(expr)})
	}
	switch {
	case len(o.values) > 0:
	case len(o.groups) > 0:
		fields = append(fields, query.Field{Name: "count", Expression: "count()"})
	default:
		return nil, errors.New("nothing to show: add a --group or a --value")
	}

	for order, s := range o.sorts {
		name, dir, _ := strings.Cut(s, ":")
		sort := &query.Sort{Order: order, Direction: query.Ascending}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			sort.Direction = query.Descending
		default:
			return nil, fmt.Errorf("invalid sort direction %q", dir)
		}
		found := false
		for i := range fields {
			if fields[i].Name == name {
				fields[i].Sort = sort
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("sort column %q is not a group or value", name)
		}
	}

	filter, err := parseTerms(o.terms)
	if err != nil {
		return nil, err
	}
	var params []query.Param
	for _, p := range o.params {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		params = append(params, query.Param{Key: key, Value: value})
	}

	style := query.StyleTable
	if o.flat {
		style = query.StyleFlat
	}
	return &query.SearchRequest{
		Query: &query.Query{Expression: filter, Params: params},
		ResultRequests: []query.ResultRequest{{
			ComponentID: "table",
			ResultStyle: style,
			Mappings: []query.TableSettings{{
				Fields:     fields,
				ShowDetail: o.detail,
				MaxResults: o.maxResults,
			}},
		}},
	}, nil
}

// columnExpression references a bare column name as ${name}
func columnExpression(s string) string {
	if strings.ContainsAny(s, "$()\"'") {
		return s
	}
	return "${" + s + "}"
}

func parseTerms(terms []string) (*expression.Operator, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var children []expression.Node
	for _, t := range terms {
		parts := strings.SplitN(strings.TrimSpace(t), " ", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid term %q, want \"field CONDITION value\"", t)
		}
		cond, ok := expression.ParseCondition(parts[1])
		if !ok {
			return nil, fmt.Errorf("invalid term %q: unknown condition %q", t, parts[1])
		}
		var value string
		if len(parts) == 3 {
			value = strings.TrimSpace(parts[2])
		}
		children = append(children, expression.NewTerm(parts[0], cond, value))
	}
	return expression.And(children...), nil
}
