package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/shopspring/decimal"
)

// WriteListings renders local listings followed by marketplace-only ones.
func WriteListings(w io.Writer, listings *services.EnrichedListings) error {
	if listings.RemoteError != "" {
		fmt.Fprintf(w, "warning: marketplace unavailable, showing local data only: %s\n\n", listings.RemoteError)
	}

	table := NewTable(w, []string{"OLX ID", "Reference", "Status", "Price", "Valid to", "Title"})
	for _, l := range listings.AppListings {
		status := string(l.Status)
		if !l.Recognized {
			status += "?"
		}
		table.AddRow(l.OLXAdvertID, l.FullReference, status, price(l.Price, l.Currency), l.ValidTo, l.Title)
	}
	if err := table.Render(); err != nil {
		return err
	}

	external := append(append([]services.ExternalListing{}, listings.ExternalLimited...), listings.ExternalOnly...)
	if len(external) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nnot managed here (%d):\n", len(external))
	table = NewTable(w, []string{"OLX ID", "Status", "Price", "Title"})
	for _, l := range external {
		table.AddRow(l.OLXAdvertID, l.Status, price(l.Price, l.Currency), l.Title)
	}
	return table.Render()
}

// WritePublishSummary renders one row per processed draft.
func WritePublishSummary(w io.Writer, summary *services.PublishSummary) error {
	table := NewTable(w, []string{"Draft", "Unit", "Result", "OLX ID", "Error"})
	for _, r := range summary.Results {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		table.AddRow(strconv.FormatUint(uint64(r.DraftID), 10), strconv.FormatUint(uint64(r.UnitID), 10), result, r.OLXAdvertID, r.Error)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d published, %d failed\n", summary.Successful, summary.Failed)
	return err
}

// WriteRefreshResult prints the reconciliation counters.
func WriteRefreshResult(w io.Writer, result *services.RefreshResult) error {
	_, err := fmt.Fprintf(w, "updated: %d\nunchanged: %d\nunrecognized: %d\nmissing remote: %d\n",
		result.Updated, result.Unchanged, result.Unrecognized, result.MissingRemote)
	return err
}

// WriteTokenStatus renders client and user token state.
func WriteTokenStatus(w io.Writer, status *olx.TokenStatus) error {
	table := NewTable(w, []string{"Token", "Exists", "Valid", "Expires at", "Scope", "Refresh"})
	for _, row := range []struct {
		name string
		info olx.TokenInfo
	}{
		{"client", status.ClientToken},
		{"user", status.UserToken},
	} {
		expires := ""
		if row.info.ExpiresAt != nil {
			expires = row.info.ExpiresAt.Format("2006-01-02 15:04")
		}
		table.AddRow(row.name, yesNo(row.info.Exists), yesNo(row.info.Valid), expires, row.info.Scope, yesNo(row.info.HasRefresh))
	}
	return table.Render()
}

// WriteCategories renders marketplace categories.
func WriteCategories(w io.Writer, categories []olx.Category) error {
	table := NewTable(w, []string{"ID", "Name", "Parent", "Leaf"})
	for _, c := range categories {
		parent := ""
		if c.ParentID != nil {
			parent = strconv.FormatInt(*c.ParentID, 10)
		}
		table.AddRow(strconv.FormatInt(c.ID, 10), c.Name, parent, yesNo(c.IsLeaf))
	}
	return table.Render()
}

// WriteCities renders marketplace cities.
func WriteCities(w io.Writer, cities []olx.City) error {
	table := NewTable(w, []string{"ID", "Name", "Region"})
	for _, c := range cities {
		region := ""
		if c.RegionID != nil {
			region = strconv.FormatInt(*c.RegionID, 10)
		}
		table.AddRow(strconv.FormatInt(c.ID, 10), c.Name, region)
	}
	return table.Render()
}

// WriteCategoryAttributes renders a category's attributes, required ones marked.
func WriteCategoryAttributes(w io.Writer, attrs []olx.CategoryAttribute) error {
	table := NewTable(w, []string{"Code", "Label", "Type", "Required", "Values"})
	for _, a := range attrs {
		codes := make([]string, 0, len(a.Values))
		for _, v := range a.Values {
			codes = append(codes, v.Code)
		}
		table.AddRow(a.Code, a.Label, a.Validation.Type, yesNo(a.Validation.Required), strings.Join(codes, ","))
	}
	return table.Render()
}

func price(value *decimal.Decimal, currency string) string {
	if value == nil {
		return ""
	}
	if currency == "" {
		return value.String()
	}
	return value.String() + " " + currency
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
