package search

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Profile is a set of domain filters.
type Profile struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Prefer  []string `yaml:"prefer,omitempty"`
}

var (
	trustedDomains = []string{
		"meti.go.jp", "soumu.go.jp", "jstage.jst.go.jp", "imanet.org",
		"sfmagazine.com", "aicpa-cima.com", "financialprofessionals.org",
		"cfo.com", "cfo.jp", "fpa-trends.com", "gartner.com", "forrester.com",
		"mckinsey.com", "deloitte.com", "ey.com", "kpmg.com", "pwc.com",
		"bcg.com", "sloanreview.mit.edu",
	}
	vendorDomains = []string{
		"microsoft.com", "learn.microsoft.com", "oracle.com", "sap.com",
		"workiva.com", "onestream.com", "planful.com", "anaplan.com",
		"board.com", "jedox.com", "pigment.com", "datarails.com",
		"highradius.com", "loglass.co.jp", "loglass.jp", "diggle.jp",
		"biz.moneyforward.com",
	}
	comparisonDomains = []string{"boxil.jp", "it-trend.jp", "itreview.jp", "saas.imitsu.jp"}
	noisyDomains      = []string{
		"note.com", "prtimes.jp", "atpress.ne.jp", "similarweb.com",
		"emergenresearch.com", "grandviewresearch.com",
	}
)

// Built-in profile names.
const (
	ProfileBalanced = "balanced"
	ProfileEvidence = "evidence"
	ProfileMarket   = "market"
)

// Profiles returns the built-in profiles keyed by name.
func Profiles() map[string]Profile {
	return map[string]Profile{
		ProfileBalanced: {
			Name:    ProfileBalanced,
			Exclude: dedupeDomains(noisyDomains),
			Prefer:  dedupeDomains(concat(trustedDomains, vendorDomains)),
		},
		ProfileEvidence: {
			Name:    ProfileEvidence,
			Include: dedupeDomains(trustedDomains),
			Exclude: dedupeDomains(noisyDomains),
			Prefer:  dedupeDomains(trustedDomains),
		},
		ProfileMarket: {
			Name:    ProfileMarket,
			Exclude: dedupeDomains([]string{"note.com", "prtimes.jp", "atpress.ne.jp"}),
			Prefer:  dedupeDomains(concat(trustedDomains, vendorDomains, comparisonDomains)),
		},
	}
}

// LookupProfile returns a built-in profile. An empty name selects balanced.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = ProfileBalanced
	}
	p, ok := Profiles()[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown search profile %q", name)
	}
	return p, nil
}

// Rerank moves results whose domain matches a preferred domain to the front.
// The sort is stable, so native ranking is kept within each group.
func Rerank(results []Result, prefer []string) []Result {
	if len(prefer) == 0 || len(results) < 2 {
		return results
	}
	out := append([]Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return preferred(out[i].URL, prefer) && !preferred(out[j].URL, prefer)
	})
	return out
}

func preferred(rawURL string, prefer []string) bool {
	host := Domain(rawURL)
	if host == "" {
		return false
	}
	for _, p := range prefer {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

// Domain returns the lower-cased host of a URL without a leading www.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func dedupeDomains(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
