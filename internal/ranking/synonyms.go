package ranking

import "strings"

// synonymGroups lists terms recruiters treat as interchangeable
var synonymGroups = [][]string{
	{"go", "golang"},
	{"javascript", "js", "ecmascript"},
	{"typescript", "ts"},
	{"kubernetes", "k8s"},
	{"postgresql", "postgres"},
	{"aws", "amazon web services"},
	{"gcp", "google cloud platform", "google cloud"},
	{"azure", "microsoft azure"},
	{"machine learning", "ml"},
	{"artificial intelligence", "ai"},
	{"natural language processing", "nlp"},
	{"continuous integration", "ci/cd", "ci cd"},
	{"product management", "product manager", "product owner"},
	{"project management", "project manager", "program management", "program manager"},
	{"software engineering", "software engineer", "software development", "software developer"},
	{"data analysis", "data analytics", "analyzed data", "analysed data"},
	{"a/b testing", "experimentation", "ab testing", "split testing"},
	{"leadership", "led", "mentored", "managed a team", "team lead"},
	{"communication", "communicated", "presented", "presentations", "written communication"},
	{"collaboration", "collaborated", "partnered", "cross-functional", "cross functional"},
	{"stakeholder management", "stakeholders", "stakeholder"},
	{"user research", "customer interviews", "usability testing"},
	{"rest", "restful", "rest api", "rest apis"},
}

// relatedTerms lists adjacent skills that earn partial credit
var relatedTerms = map[string][]string{
	"sql":              {"postgresql", "postgres", "mysql", "sqlite", "bigquery", "snowflake", "redshift"},
	"postgresql":       {"mysql", "sql", "sqlite"},
	"mysql":            {"postgresql", "postgres", "sql"},
	"docker":           {"kubernetes", "k8s", "containers", "containerized"},
	"kubernetes":       {"docker", "helm", "containers", "openshift"},
	"aws":              {"gcp", "azure", "cloud"},
	"gcp":              {"aws", "azure", "cloud"},
	"azure":            {"aws", "gcp", "cloud"},
	"react":            {"vue", "angular", "svelte", "next.js"},
	"vue":              {"react", "angular"},
	"angular":          {"react", "vue"},
	"python":           {"pandas", "django", "flask", "numpy"},
	"java":             {"kotlin", "scala", "spring"},
	"kotlin":           {"java"},
	"machine learning": {"deep learning", "data science", "tensorflow", "pytorch"},
	"data analysis":    {"analytics", "sql", "tableau", "excel", "looker"},
	"payments":         {"fintech", "billing", "checkout"},
	"fintech":          {"payments", "banking", "lending"},
	"kafka":            {"rabbitmq", "pubsub", "kinesis", "event streaming"},
	"terraform":        {"pulumi", "cloudformation", "infrastructure as code"},
}

var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string][]string {
	index := make(map[string][]string)
	for _, group := range synonymGroups {
		for _, term := range group {
			for _, other := range group {
				if other != term {
					index[term] = append(index[term], other)
				}
			}
		}
	}
	return index
}

// synonymsOf returns the interchangeable spellings of term
func synonymsOf(term string) []string {
	return synonymIndex[strings.ToLower(strings.TrimSpace(term))]
}

// relatedOf returns adjacent skills of term, including those of its synonyms
func relatedOf(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	related := append([]string{}, relatedTerms[term]...)
	for _, syn := range synonymsOf(term) {
		related = append(related, relatedTerms[syn]...)
	}
	return related
}
