package agent

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/viant/docrag/document"
	"github.com/viant/docrag/tabular"
)

// Case is a question with the route it should take
type Case struct {
	ID                string   `json:"id"`
	Query             string   `json:"query"`
	ExpectedRoute     Route    `json:"expected_route"`
	ExpectedTable     string   `json:"expected_table,omitempty"`
	ExpectedDocuments []string `json:"expected_documents,omitempty"`
	Category          string   `json:"category"`
}

// CaseResult is the outcome of one case
type CaseResult struct {
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	ExpectedRoute Route         `json:"expected_route"`
	ActualRoute   Route         `json:"actual_route"`
	Passed        bool          `json:"passed"`
	Confidence    float64       `json:"confidence"`
	ExecutionTime time.Duration `json:"execution_time"`
	Category      string        `json:"category"`
}

// Tally counts passes within a group
type Tally struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
}

// Report summarizes a self test run
type Report struct {
	TotalTests        int               `json:"total_tests"`
	Passed            int               `json:"passed"`
	Failed            int               `json:"failed"`
	SuccessRate       float64           `json:"success_rate"`
	AverageConfidence float64           `json:"average_confidence"`
	Details           []*CaseResult     `json:"test_details"`
	ByCategory        map[string]*Tally `json:"results_by_category"`
	ByRoute           map[Route]*Tally  `json:"results_by_route"`
}

type tableCase struct {
	id, query, category string
}

var tableCases = map[string][]tableCase{
	"employees": {
		{"sql_employees_by_dept", "How many employees are in each department?", "aggregation"},
		{"sql_active_employees", "Show me all active employees in San Francisco", "filter"},
		{"sql_managers", "Who are the managers and how many people report to them?", "hierarchy"},
	},
	"customers": {
		{"sql_customers_by_industry", "What industries do our customers work in?", "grouping"},
		{"sql_top_customers", "Who are our top 5 customers by contract value?", "ranking"},
		{"sql_account_manager_performance", "Which account manager has the highest total contract value across customers?", "performance"},
	},
	"support_tickets": {
		{"sql_ticket_status", "What is the distribution of support tickets by status?", "status_analysis"},
		{"sql_high_priority_tickets", "Show me all high priority support tickets", "priority_filter"},
		{"sql_tickets_by_category", "How many tickets are there in each category?", "categorization"},
	},
	"company_assets": {
		{"sql_assets_by_type", "What types of assets does the company have?", "asset_types"},
		{"sql_expensive_assets", "Show me all assets worth more than $1000", "value_filter"},
		{"sql_asset_assignments", "Which employees have the most assets assigned to them?", "assignment_analysis"},
	},
}

var crossTableCases = []Case{
	{ID: "sql_employee_assets", Query: "How many assets are assigned to employees in the Engineering department?", ExpectedRoute: RouteSQL, ExpectedTable: "multiple", Category: "join_query"},
	{ID: "sql_support_load", Query: "Which employees have the most support tickets assigned to them?", ExpectedRoute: RouteSQL, ExpectedTable: "multiple", Category: "workload_analysis"},
}

var documentCases = []Case{
	{ID: "doc_device_security", Query: "What are the device security requirements for staff?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Device Security"}, Category: "security_policy"},
	{ID: "doc_lost_equipment", Query: "What should I do if I lose my company laptop?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Device Security", "Lost Equipment"}, Category: "incident_response"},
	{ID: "doc_remote_work", Query: "What is the company's remote work policy?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Remote Work"}, Category: "hr_policy"},
	{ID: "doc_expense_reimbursement", Query: "How do I submit an expense reimbursement request?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Expense", "Reimbursement"}, Category: "process_guide"},
	{ID: "doc_it_support", Query: "What is the IT support ticket management process?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"IT Support", "Ticket Management"}, Category: "it_process"},
	{ID: "doc_onboarding", Query: "What is the hiring and onboarding process for new hires?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Hiring", "Onboarding"}, Category: "hr_process"},
	{ID: "doc_performance_review", Query: "How does the performance review process work?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Performance Management"}, Category: "hr_policy"},
	{ID: "doc_data_classification", Query: "What security controls apply to each data classification level?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Data Classification", "Access Control"}, Category: "security_policy"},
	{ID: "doc_customer_escalation", Query: "What is the customer escalation process?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Customer Escalation"}, Category: "customer_support"},
	{ID: "doc_asset_management", Query: "What is the asset management and procurement process?", ExpectedRoute: RouteDocs, ExpectedDocuments: []string{"Asset Management", "Procurement"}, Category: "operations"},
}

var webCases = []Case{
	{ID: "web_current_tech_trends", Query: "What are the latest trends in artificial intelligence in 2024?", ExpectedRoute: RouteWeb, Category: "current_events"},
	{ID: "web_market_conditions", Query: "What is the current state of the technology job market?", ExpectedRoute: RouteWeb, Category: "market_analysis"},
	{ID: "web_competitor_analysis", Query: "Who are the main competitors in the enterprise software space?", ExpectedRoute: RouteWeb, Category: "competitive_intelligence"},
	{ID: "web_industry_news", Query: "What are the latest cyber threats businesses should know about?", ExpectedRoute: RouteWeb, Category: "industry_news"},
	{ID: "web_best_practices", Query: "What are the current best practices for remote team management?", ExpectedRoute: RouteWeb, Category: "best_practices"},
	{ID: "web_technology_comparison", Query: "How does React compare to Vue.js for frontend development?", ExpectedRoute: RouteWeb, Category: "technology_comparison"},
}

// GenerateCases builds questions from the loaded tables and indexed documents.
// Either argument may be nil.
func GenerateCases(schema *tabular.Schema, documents []document.Summary) []Case {
	var ret []Case
	var tables []string
	if schema != nil {
		for name := range schema.Tables {
			tables = append(tables, name)
		}
		sort.Strings(tables)
	}
	for _, table := range tables {
		ret = append(ret, Case{
			ID:            "sql_count_" + table,
			Query:         fmt.Sprintf("How many %s are in the database?", strings.ReplaceAll(table, "_", " ")),
			ExpectedRoute: RouteSQL,
			ExpectedTable: table,
			Category:      "count",
		})
	}
	for _, table := range tables {
		for _, c := range tableCases[table] {
			ret = append(ret, Case{ID: c.id, Query: c.query, ExpectedRoute: RouteSQL, ExpectedTable: table, Category: c.category})
		}
	}
	if len(tables) > 0 {
		ret = append(ret, crossTableCases...)
	}
	ret = append(ret, documentCases...)
	for _, doc := range documents {
		title := documentTitle(doc.Name)
		ret = append(ret, Case{
			ID:                "doc_indexed_" + doc.ID,
			Query:             fmt.Sprintf("What is the policy described in %s?", title),
			ExpectedRoute:     RouteDocs,
			ExpectedDocuments: []string{doc.Name},
			Category:          "indexed_document",
		})
	}
	return append(ret, webCases...)
}

func documentTitle(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

// SelfTest runs cases and reports pass rates overall, by category and by route.
// With live false only the router is exercised; otherwise each case goes through Ask.
func (a *Agent) SelfTest(ctx context.Context, cases []Case, live bool) *Report {
	report := &Report{
		TotalTests: len(cases),
		Details:    make([]*CaseResult, 0, len(cases)),
		ByCategory: map[string]*Tally{},
		ByRoute:    map[Route]*Tally{},
	}
	var confidence float64
	for _, c := range cases {
		start := time.Now()
		result := &CaseResult{ID: c.ID, Query: c.Query, ExpectedRoute: c.ExpectedRoute, Category: c.Category}
		if live {
			answer := a.Ask(ctx, c.Query)
			result.ActualRoute, result.Confidence = answer.Route, answer.Confidence
		} else {
			result.ActualRoute = Classify(c.Query)
		}
		result.ExecutionTime = time.Since(start)
		result.Passed = result.ActualRoute == c.ExpectedRoute
		confidence += result.Confidence
		report.Details = append(report.Details, result)
		tally(report.ByCategory, c.Category, result.Passed)
		tally(report.ByRoute, c.ExpectedRoute, result.Passed)
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	if report.TotalTests > 0 {
		report.SuccessRate = float64(report.Passed) / float64(report.TotalTests)
		report.AverageConfidence = confidence / float64(report.TotalTests)
	}
	a.logf("docrag: self test passed=%d failed=%d", report.Passed, report.Failed)
	return report
}

func tally[K comparable](groups map[K]*Tally, key K, passed bool) {
	group, ok := groups[key]
	if !ok {
		group = &Tally{}
		groups[key] = group
	}
	group.Total++
	if passed {
		group.Passed++
	}
}
