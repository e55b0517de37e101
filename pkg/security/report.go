package security

import "sort"

// Credential is the minimum a hygiene check needs to know about an entry.
type Credential struct {
	ID       int64
	Service  string
	Password string
}

// Report summarizes vault hygiene.
type Report struct {
	// Total is the number of credentials examined.
	Total int

	// WeakServices lists services whose password scored Weak, sorted.
	WeakServices []string

	// ReusedGroups lists groups of services sharing one password. Each
	// group is sorted; groups are ordered by their first service.
	ReusedGroups [][]string

	// Score is 0..100. Weak and reused passwords both pull it down.
	Score int
}

// Analyze examines decrypted credentials and reports weak and reused
// passwords. Passwords never leave this function; only service names are
// reported.
func Analyze(creds []Credential) *Report {
	report := &Report{Total: len(creds)}
	if len(creds) == 0 {
		report.Score = 100
		return report
	}

	byPassword := make(map[string][]string)
	for _, c := range creds {
		if Evaluate(c.Password) == Weak {
			report.WeakServices = append(report.WeakServices, c.Service)
		}
		byPassword[c.Password] = append(byPassword[c.Password], c.Service)
	}
	sort.Strings(report.WeakServices)

	reused := 0
	for _, services := range byPassword {
		if len(services) < 2 {
			continue
		}
		sort.Strings(services)
		report.ReusedGroups = append(report.ReusedGroups, services)
		reused += len(services)
	}
	sort.Slice(report.ReusedGroups, func(i, j int) bool {
		return report.ReusedGroups[i][0] < report.ReusedGroups[j][0]
	})

	// Each weak or reused credential costs its share of the total.
	penalty := (len(report.WeakServices) + reused) * 100 / (2 * report.Total)
	report.Score = 100 - penalty
	if report.Score < 0 {
		report.Score = 0
	}

	return report
}
