package agent

import "strings"

// Route names the strategy used to answer a question
type Route string

const (
	RouteSQL   Route = "sql"
	RouteDocs  Route = "docs"
	RouteWeb   Route = "web"
	RouteError Route = "error"
)

var (
	sqlKeywords  = []string{"how many", "show me", "count", "list", "employees", "customers", "tickets", "assets", "select", "where", "department", "industry"}
	docsKeywords = []string{"policy", "process", "how do i", "what should", "reimbursement", "security", "onboarding", "device", "laptop"}
)

// Classify picks a route by case-insensitive substring match; structured data keywords win over document keywords
func Classify(query string) Route {
	lower := strings.ToLower(query)
	if containsAny(lower, sqlKeywords) {
		return RouteSQL
	}
	if containsAny(lower, docsKeywords) {
		return RouteDocs
	}
	return RouteWeb
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
