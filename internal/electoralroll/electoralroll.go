// Package electoralroll looks up voter ids on the state electoral roll search page.
package electoralroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	districtField = "ctl00$ContentPlaceHolder1$ddlDistrict"
	epicField     = "ctl00$ContentPlaceHolder1$txtEpic"
	resultTableID = "ctl00_ContentPlaceHolder1_GridView1"
)

// resultColumns are the cells of a result row after the leading button cell.
var resultColumns = []string{
	"ac_num", "ac_name", "part_no", "sl_no", "first_name", "last_name",
	"rel_firstname", "rel_lastname", "sex", "age",
}

// Voter is one electoral roll entry.
type Voter struct {
	VoterID      string `json:"voterid"`
	ACNum        string `json:"ac_num"`
	ACName       string `json:"ac_name"`
	PartNo       string `json:"part_no"`
	SerialNo     string `json:"sl_no"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RelFirstName string `json:"rel_firstname"`
	RelLastName  string `json:"rel_lastname"`
	Gender       string `json:"sex"`
	Age          int    `json:"age"`
}

// Name is the voter's full name.
func (v *Voter) Name() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// RelName is the full name of the voter's relation.
func (v *Voter) RelName() string {
	return strings.TrimSpace(v.RelFirstName + " " + v.RelLastName)
}

// Lookup fetches voters by id. A voter id that is not on the roll yields (nil, nil).
type Lookup interface {
	FetchVoter(ctx context.Context, voterID string) (*Voter, error)
}

// Options configures a Client.
type Options struct {
	URL        string
	District   string
	Timeout    time.Duration
	MaxRetries uint64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client scrapes the ASP.NET search form.
type Client struct {
	opts Options
	http *http.Client
	log  *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{opts: opts, http: hc, log: log}
}

// FetchVoter submits the search form for voterID and parses the last result row.
func (c *Client) FetchVoter(ctx context.Context, voterID string) (*Voter, error) {
	voterID = strings.ToUpper(strings.TrimSpace(voterID))
	if voterID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var voter *Voter
	op := func() error {
		v, err := c.fetch(ctx, voterID)
		if err != nil {
			c.log.Debug("electoral roll lookup attempt failed", "voterid", voterID, "error", err)
			return err
		}
		voter = v
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", voterID, err)
	}
	return voter, nil
}

func (c *Client) fetch(ctx context.Context, voterID string) (*Voter, error) {
	page, err := c.get(ctx, c.opts.URL)
	if err != nil {
		return nil, err
	}
	form := findNode(page, func(n *html.Node) bool { return n.DataAtom == atom.Form })
	if form == nil {
		return nil, backoff.Permanent(errors.New("search form not found"))
	}

	values := formValues(form)
	values.Set(districtField, c.opts.District)
	values.Set(epicField, voterID)

	action, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if a := attr(form, "action"); a != "" {
		if ref, err := action.Parse(a); err == nil {
			action = ref
		}
	}

	result, err := c.post(ctx, action.String(), values)
	if err != nil {
		return nil, err
	}
	return parseResult(result, voterID), nil
}

func (c *Client) get(ctx context.Context, u string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, u string, values url.Values) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*html.Node, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode))
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse %s: %w", req.URL, err))
	}
	return doc, nil
}

// formValues collects the successful controls of form, including the first submit button.
func formValues(form *html.Node) url.Values {
	values := url.Values{}
	submitted := false
	walk(form, func(n *html.Node) {
		name := attr(n, "name")
		if name == "" {
			return
		}
		switch n.DataAtom {
		case atom.Input:
			switch strings.ToLower(attr(n, "type")) {
			case "submit", "image":
				if !submitted {
					values.Set(name, attr(n, "value"))
					submitted = true
				}
			case "checkbox", "radio":
				if hasAttr(n, "checked") {
					values.Add(name, attr(n, "value"))
				}
			case "button", "reset", "file":
			default:
				values.Set(name, attr(n, "value"))
			}
		case atom.Select:
			var first string
			selected := ""
			walk(n, func(o *html.Node) {
				if o.DataAtom != atom.Option {
					return
				}
				if first == "" {
					first = attr(o, "value")
				}
				if hasAttr(o, "selected") && selected == "" {
					selected = attr(o, "value")
				}
			})
			if selected == "" {
				selected = first
			}
			values.Set(name, selected)
		case atom.Textarea:
			values.Set(name, text(n))
		}
	})
	return values
}

// parseResult reads the last row of the result grid. A missing grid means no match.
func parseResult(doc *html.Node, voterID string) *Voter {
	table := findNode(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && attr(n, "id") == resultTableID
	})
	if table == nil {
		return nil
	}

	var last *html.Node
	walk(table, func(n *html.Node) {
		if n.DataAtom == atom.Tr {
			last = n
		}
	})
	if last == nil {
		return nil
	}

	var cells []string
	for td := last.FirstChild; td != nil; td = td.NextSibling {
		if td.DataAtom == atom.Td || td.DataAtom == atom.Th {
			cells = append(cells, strings.TrimSpace(text(td)))
		}
	}
	if len(cells) < 2 {
		return nil
	}
	cells = cells[1:]

	row := make(map[string]string, len(resultColumns))
	for i, col := range resultColumns {
		if i < len(cells) {
			row[col] = cells[i]
		}
	}
	age, _ := strconv.Atoi(row["age"])
	return &Voter{
		VoterID:      voterID,
		ACNum:        row["ac_num"],
		ACName:       row["ac_name"],
		PartNo:       row["part_no"],
		SerialNo:     row["sl_no"],
		FirstName:    row["first_name"],
		LastName:     row["last_name"],
		RelFirstName: row["rel_firstname"],
		RelLastName:  row["rel_lastname"],
		Gender:       row["sex"],
		Age:          age,
	}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
