package query

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tourbook/internal/common"
)

const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"

	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000

	// VersionField is internal bookkeeping, hidden unless asked for.
	VersionField = "version"
)

var controlParams = map[string]bool{
	ParamPage:   true,
	ParamSort:   true,
	ParamLimit:  true,
	ParamFields: true,
}

var (
	filterKeyRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)(?:\[([A-Za-z]+)\])?$`)
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

type options struct {
	defaultSort  []SortKey
	defaultLimit int
	maxLimit     int
}

type Option func(*options)

// WithDefaultSort replaces the newest-first default, e.g. "name,-price".
func WithDefaultSort(order string) Option {
	return func(o *options) {
		if keys, err := parseSort(order); err == nil && len(keys) > 0 {
			o.defaultSort = keys
		}
	}
}

func WithDefaultLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultLimit = n
		}
	}
}

func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// Builder applies the four list transforms to a parameter set. The
// transforms are independent and may run in any order; the first error
// sticks and is reported by Descriptor.
type Builder struct {
	params url.Values
	opts   options
	desc   Descriptor
	err    error
}

func NewBuilder(params url.Values, opts ...Option) *Builder {
	o := options{
		defaultSort:  []SortKey{{Field: "createdAt", Desc: true}},
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{params: params, opts: o}
}

// Build runs filter, sort, project and paginate.
func Build(params url.Values, opts ...Option) (Descriptor, error) {
	return NewBuilder(params, opts...).Filter().Sort().Project().Paginate().Descriptor()
}

func (b *Builder) Descriptor() (Descriptor, error) {
	if b.err != nil {
		return Descriptor{}, b.err
	}
	return b.desc, nil
}

// Filter turns every non-control parameter into a condition. Values stay
// as sent; the schema converts them once the column kind is known.
func (b *Builder) Filter() *Builder {
	if b.err != nil {
		return b
	}

	conds := make([]Condition, 0, len(b.params))
	for key, values := range b.params {
		if controlParams[key] || len(values) == 0 {
			continue
		}

		m := filterKeyRe.FindStringSubmatch(key)
		if m == nil {
			b.err = common.InvalidQuery("Invalid filter parameter: %s", key)
			return b
		}
		field, op := m[1], OpEq
		if m[2] != "" {
			op = Op(m[2])
			if op == OpEq || !op.Valid() {
				b.err = common.InvalidQuery("Invalid filter operator %q on %s", m[2], field)
				return b
			}
		}

		// "a=1&a=2" keeps the last value
		conds = append(conds, Condition{Field: field, Op: op, Value: values[len(values)-1]})
	}

	sortConditions(conds)
	b.desc.Filter = conds
	return b
}

func (b *Builder) Sort() *Builder {
	if b.err != nil {
		return b
	}
	raw := b.params.Get(ParamSort)
	if raw == "" {
		b.desc.Sort = append([]SortKey(nil), b.opts.defaultSort...)
		return b
	}

	keys, err := parseSort(raw)
	if err != nil {
		b.err = err
		return b
	}
	if len(keys) == 0 {
		keys = append([]SortKey(nil), b.opts.defaultSort...)
	}
	b.desc.Sort = keys
	return b
}

func (b *Builder) Project() *Builder {
	if b.err != nil {
		return b
	}
	raw := b.params.Get(ParamFields)
	fields, err := splitIdentifiers(raw, "field")
	if err != nil {
		b.err = err
		return b
	}
	if len(fields) == 0 {
		b.desc.Fields = nil
		b.desc.Exclude = []string{VersionField}
		return b
	}
	b.desc.Fields = fields
	b.desc.Exclude = nil
	return b
}

func (b *Builder) Paginate() *Builder {
	if b.err != nil {
		return b
	}
	page, err := positiveInt(b.params.Get(ParamPage), DefaultPage, ParamPage)
	if err != nil {
		b.err = err
		return b
	}
	limit, err := positiveInt(b.params.Get(ParamLimit), b.opts.defaultLimit, ParamLimit)
	if err != nil {
		b.err = err
		return b
	}
	if limit > b.opts.maxLimit {
		limit = b.opts.maxLimit
	}
	if page-1 > math.MaxInt/limit {
		b.err = common.InvalidQuery("Invalid %s: %s", ParamPage, b.params.Get(ParamPage))
		return b
	}

	b.desc.Page = page
	b.desc.Limit = limit
	b.desc.Skip = (page - 1) * limit
	return b
}

func parseSort(raw string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if !identifierRe.MatchString(field) {
			return nil, common.InvalidQuery("Invalid sort field: %s", part)
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}
	return keys, nil
}

func splitIdentifiers(raw, what string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !identifierRe.MatchString(part) {
			return nil, common.InvalidQuery("Invalid %s: %s", what, part)
		}
		out = append(out, part)
	}
	return out, nil
}

func positiveInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, common.InvalidQuery("Invalid %s: %s", name, raw)
	}
	return n, nil
}
