package extend

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

const pagedSearchOperation = "paged_search"

// PagedSearchRequest describes a search executed with the RFC 2696 paged
// results control. Use NewPagedSearchRequest to get the usual defaults; a
// literal request is taken as written.
type PagedSearchRequest struct {
	BaseDN       string
	Filter       string
	Scope        ldapclient.SearchScope  `default:"2"`
	DerefAliases ldapclient.DerefAliases `default:"3"`

	// Attributes to return; empty means all user attributes.
	Attributes []string
	SizeLimit  int
	// TimeLimit is sent to the server in whole seconds, rounded up.
	TimeLimit time.Duration
	TypesOnly bool
	// OperationalAttributes adds "+" to the attribute list.
	OperationalAttributes bool
	Controls              []ldap.Control

	PageSize int `default:"100"`
	// Critical marks the paging control critical, so a server without
	// paging support must refuse the search.
	Critical bool
}

// NewPagedSearchRequest returns a subtree search of base with filter, always
// dereferencing aliases, in pages of 100 entries.
func NewPagedSearchRequest(base, filter string) *PagedSearchRequest {
	req := &PagedSearchRequest{BaseDN: base, Filter: filter}
	if err := defaults.Set(req); err != nil {
		panic(fmt.Sprintf("paged search defaults: %v", err))
	}
	return req
}

// PagedSearch is a single-use cursor over the pages of one search. Every
// NextPage is one synchronous round trip; nothing is fetched ahead. Once the
// server stops returning a cookie, a round fails, or iteration is abandoned,
// the cursor is done and refuses further rounds with ErrCursorExhausted.
//
// A PagedSearch is not safe for concurrent use.
type PagedSearch struct {
	session    ldapclient.Session
	request    PagedSearchRequest
	attributes []string
	controls   []ldap.Control

	cookie  []byte
	pages   int
	entries int
	done    bool
}

var _ Operation[[]*ldap.Entry] = (*PagedSearch)(nil)

// NewPagedSearch validates req and returns a cursor positioned before the
// first page. The request is copied; later changes to req have no effect.
func NewPagedSearch(session ldapclient.Session, req *PagedSearchRequest) (*PagedSearch, error) {
	if req == nil {
		return nil, validationError(pagedSearchOperation, ErrNilRequest)
	}
	if req.PageSize <= 0 {
		return nil, validationError(pagedSearchOperation, fmt.Errorf("%w: %d", ErrInvalidPageSize, req.PageSize))
	}
	if _, err := ldap.CompileFilter(req.Filter); err != nil {
		return nil, validationError(pagedSearchOperation, fmt.Errorf("invalid filter %q: %w", req.Filter, err))
	}

	p := &PagedSearch{
		session:    session,
		request:    *req,
		attributes: requestedAttributes(req.Attributes, req.OperationalAttributes),
	}

	// A caller-supplied paging control would be sent twice.
	for _, c := range req.Controls {
		if c.GetControlType() != ldap.ControlTypePaging {
			p.controls = append(p.controls, c)
		}
	}

	return p, nil
}

func requestedAttributes(attrs []string, operational bool) []string {
	out := slices.Clone(attrs)
	if !operational {
		return out
	}
	if len(out) == 0 {
		out = append(out, "*")
	}
	if !slices.Contains(out, "+") {
		out = append(out, "+")
	}
	return out
}

// Done reports whether the cursor has finished.
func (p *PagedSearch) Done() bool { return p.done }

// Pages returns the number of pages received so far.
func (p *PagedSearch) Pages() int { return p.pages }

// NextPage performs the next round trip and returns the entries of that page
// in server order. When the server ends the search at SizeLimit, the entries
// it returned come back together with the error and the cursor is done.
func (p *PagedSearch) NextPage(ctx context.Context) ([]*ldap.Entry, error) {
	if p.done {
		return nil, ErrCursorExhausted
	}

	page := p.pages + 1
	fields := map[string]any{
		"base_dn":       p.request.BaseDN,
		"filter":        p.request.Filter,
		"page":          page,
		"page_size":     p.request.PageSize,
		"cookie_length": len(p.cookie),
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(ctx, page, err, fields)
	}

	tflog.SubsystemTrace(ctx, logSubsystem, "Requesting page", fields)

	result, err := p.session.Search(p.searchRequest())
	if err != nil {
		if result == nil || !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return nil, p.fail(ctx, page, err, fields)
		}
		// The server stopped at SizeLimit; keep what it sent.
		p.pages = page
		p.entries += len(result.Entries)
		fields["entries_in_page"] = len(result.Entries)
		return result.Entries, p.fail(ctx, page, err, fields)
	}

	p.pages = page
	p.entries += len(result.Entries)
	p.cookie = responseCookie(result.Controls)
	if len(p.cookie) == 0 {
		p.done = true
	}

	fields["entries_in_page"] = len(result.Entries)
	fields["more"] = !p.done
	tflog.SubsystemDebug(ctx, logSubsystem, "Received page", fields)

	if p.done {
		tflog.SubsystemInfo(ctx, logSubsystem, "Paged search completed", map[string]any{
			"base_dn": p.request.BaseDN,
			"pages":   p.pages,
			"entries": p.entries,
		})
	}

	return result.Entries, nil
}

func (p *PagedSearch) searchRequest() *ldap.SearchRequest {
	controls := make([]ldap.Control, 0, len(p.controls)+1)
	controls = append(controls, p.controls...)
	controls = append(controls, &pagedResultsControl{
		size:     uint32(p.request.PageSize),
		cookie:   p.cookie,
		critical: p.request.Critical,
	})

	return ldap.NewSearchRequest(
		p.request.BaseDN,
		int(p.request.Scope),
		int(p.request.DerefAliases),
		p.request.SizeLimit,
		wholeSeconds(p.request.TimeLimit),
		p.request.TypesOnly,
		p.request.Filter,
		p.attributes,
		controls,
	)
}

func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (p *PagedSearch) fail(ctx context.Context, page int, err error, fields map[string]any) error {
	p.done = true

	ldapclient.LogLDAPError(ctx, logSubsystem, pagedSearchOperation, err, fields)

	ldapErr := ldapclient.NewLDAPError(pagedSearchOperation, err)
	ldapErr.Page = page
	return ldapErr
}

// Entries returns the remaining entries as a lazy sequence. Each page is
// fetched only when the consumer has taken every entry of the previous one.
// A failing round yields its error once and ends the sequence; entries
// already yielded stay valid. A round cut short by SizeLimit yields the
// entries the server sent before its error. Breaking out of the loop abandons the cursor.
// Ranging over a finished cursor yields ErrCursorExhausted.
func (p *PagedSearch) Entries(ctx context.Context) iter.Seq2[*ldap.Entry, error] {
	return func(yield func(*ldap.Entry, error) bool) {
		if p.done {
			yield(nil, ErrCursorExhausted)
			return
		}

		for !p.done {
			entries, err := p.NextPage(ctx)
			for _, entry := range entries {
				if !yield(entry, nil) {
					p.abandon(ctx)
					return
				}
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

func (p *PagedSearch) abandon(ctx context.Context) {
	if p.done {
		return
	}
	p.done = true
	tflog.SubsystemDebug(ctx, logSubsystem, "Paged search abandoned", map[string]any{
		"base_dn": p.request.BaseDN,
		"pages":   p.pages,
		"entries": p.entries,
	})
}

// All drains the cursor. On failure it returns the entries gathered from the
// pages that succeeded together with the error, which records the failing
// page.
func (p *PagedSearch) All(ctx context.Context) ([]*ldap.Entry, error) {
	entries := make([]*ldap.Entry, 0)
	for entry, err := range p.Entries(ctx) {
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Send is All.
func (p *PagedSearch) Send(ctx context.Context) ([]*ldap.Entry, error) {
	return p.All(ctx)
}
