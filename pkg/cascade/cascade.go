// Package cascade wires the cascading-filter graph: a region selection
// drives the set of locality choices, a stale locality selection is
// forced back to "All", and the region/locality pair drives the filtered
// record view plus derived view-models.
package cascade

import (
	"fmt"
	"sort"

	"github.com/ripple-dev/ripple/pkg/records"
	"github.com/ripple-dev/ripple/pkg/session"
)

// LocalityAll is the sentinel locality meaning "no locality filter".
const LocalityAll = "All"

// Node keys registered by Build.
const (
	KeyRegion          = "region"
	KeyLocality        = "locality"
	KeyLocalityChoices = "localityChoices"
	KeyPushChoices     = "pushLocalityChoices"
	KeyFiltered        = "filteredRecords"
	KeyRenderFiltered  = "renderFiltered"
	KeyWordCounts      = "nameWordCounts"
	KeyRenderCounts    = "renderCounts"
)

// Surface is the external rendering collaborator. The graph only writes
// to it, via effects; it never reads back.
type Surface interface {
	// PushChoices replaces the choice list of a selection control.
	PushChoices(control string, choices []string)

	// PushRecords replaces the records shown by a table or chart view.
	PushRecords(view string, recs []records.Record)

	// PushCounts replaces a word-frequency view-model.
	PushCounts(view string, counts []WordCount)
}

// Options configures the wiring.
type Options struct {
	// InitialRegion selects the starting region. Empty uses the first
	// distinct region of the dataset.
	InitialRegion string

	// NameField is the payload field tokenized for the word-frequency
	// view-model. Default "name".
	NameField string

	// TopWords caps the word-frequency view-model size. Default 20.
	TopWords int
}

func (o Options) withDefaults() Options {
	if o.NameField == "" {
		o.NameField = "name"
	}
	if o.TopWords <= 0 {
		o.TopWords = 20
	}
	return o
}

// Build registers the cascading-filter nodes on the session's graph and
// runs the initial passes so the surface starts populated.
//
// Node wiring:
//
//	region (Source) ──► localityChoices (Derived) ──► pushLocalityChoices (Effect)
//	region, locality (Sources) ──► filteredRecords (Derived)
//	filteredRecords ──► renderFiltered (Effect)
//	filteredRecords ──► nameWordCounts (Derived) ──► renderCounts (Effect)
//
// pushLocalityChoices re-sets locality to "All" through the session queue
// when the current selection drops out of the choice set; the reset is a
// new source change processed as its own pass.
func Build(sess *session.Session, src records.Source, surface Surface, opts Options) error {
	opts = opts.withDefaults()
	g := sess.Graph()

	region := opts.InitialRegion
	if region == "" {
		if regions := src.Distinct(records.FieldRegion); len(regions) > 0 {
			region = regions[0]
		}
	}

	if err := g.RegisterSource(KeyRegion, region); err != nil {
		return err
	}
	if err := g.RegisterSource(KeyLocality, LocalityAll); err != nil {
		return err
	}

	err := g.RegisterDerived(KeyLocalityChoices, []string{KeyRegion},
		func(vals []any) (any, error) {
			region, ok := vals[0].(string)
			if !ok {
				return nil, fmt.Errorf("cascade: region is %T, want string", vals[0])
			}
			return localityChoices(src, region), nil
		})
	if err != nil {
		return err
	}

	err = g.RegisterEffect(KeyPushChoices, []string{KeyLocalityChoices},
		func(vals []any) error {
			choices := vals[0].([]string)
			surface.PushChoices(KeyLocality, choices)

			// A region change can strand the locality selection. Force
			// it back to "All"; the re-set is queued and lands in the
			// next pass.
			if cur, ok := sess.Value(KeyLocality); ok {
				if sel, _ := cur.(string); !contains(choices, sel) {
					return sess.Set(KeyLocality, LocalityAll)
				}
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = g.RegisterDerived(KeyFiltered, []string{KeyRegion, KeyLocality},
		func(vals []any) (any, error) {
			region, _ := vals[0].(string)
			locality, _ := vals[1].(string)
			return filterRecords(src, region, locality), nil
		})
	if err != nil {
		return err
	}

	err = g.RegisterEffect(KeyRenderFiltered, []string{KeyFiltered},
		func(vals []any) error {
			surface.PushRecords(KeyFiltered, vals[0].([]records.Record))
			return nil
		})
	if err != nil {
		return err
	}

	err = g.RegisterDerived(KeyWordCounts, []string{KeyFiltered},
		func(vals []any) (any, error) {
			recs := vals[0].([]records.Record)
			return CountWords(recs, opts.NameField, opts.TopWords), nil
		})
	if err != nil {
		return err
	}

	err = g.RegisterEffect(KeyRenderCounts, []string{KeyWordCounts},
		func(vals []any) error {
			surface.PushCounts(KeyWordCounts, vals[0].([]WordCount))
			return nil
		})
	if err != nil {
		return err
	}

	// Prime the graph: one synthetic change per source populates every
	// derived value and pushes the initial view-models.
	if err := sess.Set(KeyRegion, region); err != nil {
		return err
	}
	if err := sess.Set(KeyLocality, LocalityAll); err != nil {
		return err
	}
	for _, result := range sess.Flush() {
		if !result.OK() {
			return &result.Errors[0]
		}
	}
	return nil
}

// localityChoices is {"All"} plus the sorted distinct localities of the
// records in the given region.
func localityChoices(src records.Source, region string) []string {
	matched := src.Filter(func(r records.Record) bool {
		return r.Region == region
	})

	seen := make(map[string]bool)
	choices := []string{LocalityAll}
	for _, r := range matched {
		if r.Locality != "" && !seen[r.Locality] {
			seen[r.Locality] = true
			choices = append(choices, r.Locality)
		}
	}
	sort.Strings(choices[1:])
	return choices
}

// filterRecords applies the region filter, and the locality filter unless
// locality is "All".
func filterRecords(src records.Source, region, locality string) []records.Record {
	return src.Filter(func(r records.Record) bool {
		if r.Region != region {
			return false
		}
		return locality == LocalityAll || r.Locality == locality
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
