package notionsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/records"
	"github.com/jomei/notionapi"
)

// Property names of the review database.
const (
	propTitle       = "Review"
	propReviewKey   = "Review Key"
	propKind        = "Kind"
	propStatus      = "Status"
	propTenant      = "Tenant"
	propMonths      = "Months"
	propProvider    = "Provider"
	propCreated     = "Created"
	propAvgSurplus  = "Avg Daily Surplus"
	propVolatility  = "Surplus Volatility"
	propClosing     = "Closing Balance"
	propBufferDays  = "Cash Buffer Days"
	propDrawdown    = "Max Drawdown"
	propMaxNotional = "Max Notional USD/Day"
	propLossLimit   = "Daily Loss Limit (bps)"
	propInvBand     = "Inventory Band"
	propMinEdge     = "Min Edge (bps)"
)

const (
	kindExtraction = "Extraction"
	kindAggregate  = "Aggregate"

	// StatusPending is set on every page the publisher writes; reviewers change it in Notion.
	StatusPending = "Pending review"
)

// ExtractionReviewKey identifies a statement within a tenant so republishing it updates
// the same page.
func ExtractionReviewKey(rec records.ExtractionRecord) string {
	return "extraction:" + rec.TenantID + ":" + rec.RawHash
}

// AggregateReviewKey identifies a tenant's merge over a specific set of months.
func AggregateReviewKey(rec records.AggregateRecord) string {
	return "aggregate:" + rec.TenantID + ":" + strings.Join(rec.Summary.Months, ",")
}

// ExtractionToNotionProperties maps an extraction record onto review page properties.
func ExtractionToNotionProperties(rec records.ExtractionRecord) notionapi.Properties {
	f, o := rec.Features, rec.Overrides
	props := notionapi.Properties{
		propTitle:       titleProp(fmt.Sprintf("%s %s", rec.TenantID, rec.Month)),
		propReviewKey:   richTextProp(ExtractionReviewKey(rec)),
		propKind:        selectProp(kindExtraction),
		propStatus:      selectProp(StatusPending),
		propTenant:      richTextProp(rec.TenantID),
		propMonths:      richTextProp(rec.Month),
		propAvgSurplus:  notionapi.NumberProperty{Number: f.AvgDailySurplus},
		propVolatility:  notionapi.NumberProperty{Number: f.SurplusVolatility},
		propClosing:     notionapi.NumberProperty{Number: f.ClosingBalance},
		propBufferDays:  notionapi.NumberProperty{Number: f.CashBufferDays},
		propDrawdown:    notionapi.NumberProperty{Number: f.MaxDrawdown},
		propMaxNotional: notionapi.NumberProperty{Number: o.MaxNotionalUSDDay},
		propLossLimit:   notionapi.NumberProperty{Number: o.DailyLossLimitBps},
		propInvBand:     notionapi.NumberProperty{Number: o.InventoryBand},
		propMinEdge:     notionapi.NumberProperty{Number: o.MinEdgeBpsBaseline},
	}
	if rec.Provider != "" {
		props[propProvider] = selectProp(rec.Provider)
	}
	if !rec.CreatedAt.IsZero() {
		props[propCreated] = dateProp(rec.CreatedAt)
	}
	return props
}

// AggregateToNotionProperties maps a merged summary onto review page properties.
func AggregateToNotionProperties(rec records.AggregateRecord) notionapi.Properties {
	s, o := rec.Summary, rec.Summary.ProposedOverrides

	label := "no months"
	if len(s.Months) > 0 {
		label = s.Months[0] + " to " + s.Months[len(s.Months)-1]
	}

	props := notionapi.Properties{
		propTitle:       titleProp(fmt.Sprintf("%s %s", rec.TenantID, label)),
		propReviewKey:   richTextProp(AggregateReviewKey(rec)),
		propKind:        selectProp(kindAggregate),
		propStatus:      selectProp(StatusPending),
		propTenant:      richTextProp(rec.TenantID),
		propMonths:      richTextProp(strings.Join(s.Months, ", ")),
		propAvgSurplus:  notionapi.NumberProperty{Number: s.AvgSurplusDaily},
		propVolatility:  notionapi.NumberProperty{Number: s.SurplusVolatilityDaily},
		propClosing:     notionapi.NumberProperty{Number: s.ClosingBalanceLast},
		propMaxNotional: notionapi.NumberProperty{Number: o.MaxNotionalUSDDay},
		propLossLimit:   notionapi.NumberProperty{Number: o.DailyLossLimitBps},
		propInvBand:     notionapi.NumberProperty{Number: o.InventoryBand},
		propMinEdge:     notionapi.NumberProperty{Number: o.MinEdgeBpsBaseline},
	}
	if !rec.CreatedAt.IsZero() {
		props[propCreated] = dateProp(rec.CreatedAt)
	}
	return props
}

// withoutStatus drops the status so an update does not reset a reviewer's decision.
func withoutStatus(props notionapi.Properties) notionapi.Properties {
	out := make(notionapi.Properties, len(props))
	for k, v := range props {
		if k != propStatus {
			out[k] = v
		}
	}
	return out
}

// extractReviewKey reads the review key from a queried page. Returns "" if absent.
func extractReviewKey(page notionapi.Page) string {
	if prop, ok := page.Properties[propReviewKey]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}

func titleProp(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Title: []notionapi.RichText{textOf(s)}}
}

func richTextProp(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{RichText: []notionapi.RichText{textOf(s)}}
}

func selectProp(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func dateProp(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func textOf(s string) notionapi.RichText {
	return notionapi.RichText{
		Type:      notionapi.ObjectTypeText,
		Text:      &notionapi.Text{Content: s},
		PlainText: s,
	}
}
