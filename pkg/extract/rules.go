package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/entrhq/distill/pkg/types"
)

// matcher returns the fact texts a rule recognizes in one turn's text.
// It receives both the raw text and its lower-cased form.
type matcher func(text, lower string) []string

// rule binds one fact category to one matcher.
type rule struct {
	name     string
	category types.Category

	// userOnly restricts the rule to user turns. Assistants routinely
	// restate or propose conditions that are not the user's own.
	userOnly bool

	match matcher
}

// rules is the ordered rule table. Each rule is evaluated independently
// against every turn; table order is the tie-breaker in fact ordering.
var rules = []rule{
	{name: "business_model", category: types.CategoryCompanyProfile, match: matchBusinessModel},
	{name: "company_size", category: types.CategoryCompanyProfile, match: matchCompanySize},
	{name: "sales_team", category: types.CategoryCompanyProfile, match: matchSalesTeam},
	{name: "deployment", category: types.CategoryHardConstraint, match: matchDeployment},
	{name: "data_residency", category: types.CategoryHardConstraint, match: matchDataResidency},
	{name: "it_capability", category: types.CategoryHardConstraint, match: matchITCapability},
	{name: "mandatory_clause", category: types.CategoryHardConstraint, userOnly: true, match: matchMandatoryClause},
	{name: "budget", category: types.CategoryBudget, match: matchBudget},
	{name: "timeline", category: types.CategoryTimeline, match: matchTimeline},
	{name: "current_tooling", category: types.CategoryOther, match: matchCurrentTooling},
}

var (
	cloudKeywords  = []string{"云端", "云上", "saas", "cloud", "hosted", "云服务", "云部署", "上云"}
	onPremKeywords = []string{"本地部署", "私有化", "on-prem", "on prem", "self-hosted", "自建机房"}

	residencyKeywords = []string{"国内", "中国境内", "in china", "within china", "mainland china"}
	noITKeywords      = []string{"没有it", "没有 it", "无it", "没有技术团队", "没有运维", "no it team", "no in-house it", "no internal it", "don't have an it", "do not have an it"}

	mandatoryKeywords = []string{"必须", "不能", "不可以", "一定要", "务必", "must", "non-negotiable", "mandatory", "required to", "have to"}

	budgetKeywords = []string{"预算", "经费", "投入", "花费", "budget", "spend", "afford", "price range"}
	yearlyKeywords = []string{"每年", "一年", "/年", "年费", "per year", "a year", "annually", "/yr", "per annum"}

	// Generic entries only apply when no named tool matched in the turn.
	toolingKeywords = []struct {
		keyword, label string
		generic        bool
	}{
		{keyword: "excel", label: "Excel"},
		{keyword: "google sheets", label: "Google Sheets"},
		{keyword: "纸质", label: "paper records"},
		{keyword: "表格", label: "spreadsheets", generic: true},
		{keyword: "spreadsheet", label: "spreadsheets", generic: true},
	}

	// Headcounts followed by these describe customers, not staff.
	customerSuffixes = []string{"用户", "客户", "users", "customers", "clients"}

	pastPrefixes = []string{"过去", "已经", "以前", "之前", "past", "last", "already"}
	pastSuffixes = []string{"了", "前", "以来", "ago"}
)

var (
	b2bPattern       = regexp.MustCompile(`\b(?:b2b|to\s?b|business customers|enterprise clients)\b|企业客户|企业级`)
	b2cPattern       = regexp.MustCompile(`\b(?:b2c|to\s?c|consumers|individual customers)\b|个人用户|消费者`)
	headcountPattern = regexp.MustCompile(`(\d[\d,]*)\s*(?:多|来|余)?\s*(?:个人|人|名员工|位员工|employees|people|staff)`)
	salesTeamPattern = regexp.MustCompile(`(?:销售(?:团队|人员|部门)?(?:有|大概|大约|约|差不多|是|共|一共)?\s*(\d+)|(\d+)\s*(?:个|名|位)?\s*(?:销售|sales\s*(?:reps?|people|staff|persons?)|salespeople)|sales\s+team\s+(?:of|has|is)\s+(?:about\s+|around\s+|roughly\s+)?(\d+))`)
	salesContext     = regexp.MustCompile(`销售|sales`)
	amountPattern    = regexp.MustCompile(`(?i)(?:[$¥￥]\s*\d[\d,]*(?:\.\d+)?\s*(?:k|m|million|thousand)?\b|\d[\d,]*(?:\.\d+)?\s*(?:万|千|k\b|m\b|million|thousand)?\s*(?:元|块|rmb|cny|usd|美元|dollars)|\d+(?:\.\d+)?\s*万)`)
	timelinePattern  = regexp.MustCompile(`(?i)(春节前|过年前|年底前|月底前|季度末|[一二两三四五六\d]+\s*个月内?|下个?月|within\s+\d+\s+(?:days|weeks|months)|by\s+(?:the\s+end\s+of\s+)?(?:january|february|march|april|may|june|july|august|september|october|november|december|q[1-4]|next\s+(?:week|month|quarter)|this\s+(?:month|quarter|year))|before\s+(?:chinese\s+new\s+year|spring\s+festival|the\s+end\s+of\s+(?:the\s+)?(?:month|quarter|year)))`)
	clauseSeparators = regexp.MustCompile(`[。！？!?；;\n，]|[.,]\s`)
	maxClauseRunes   = 120
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func matchBusinessModel(_, lower string) []string {
	var out []string
	if b2bPattern.MatchString(lower) {
		out = append(out, "business model: B2B")
	}
	if b2cPattern.MatchString(lower) {
		out = append(out, "business model: B2C")
	}
	return out
}

func matchCompanySize(text, _ string) []string {
	var out []string
	for _, loc := range headcountPattern.FindAllStringSubmatchIndex(text, -1) {
		// Headcounts attached to the sales team belong to matchSalesTeam.
		if salesContext.MatchString(strings.ToLower(clausePrefix(text[:loc[0]]) + text[loc[0]:loc[1]])) {
			continue
		}
		if hasPrefixAny(strings.ToLower(strings.TrimSpace(text[loc[1]:])), customerSuffixes) {
			continue
		}
		n := strings.ReplaceAll(text[loc[2]:loc[3]], ",", "")
		out = append(out, "company size: "+n+" employees")
	}
	return out
}

func matchSalesTeam(_, lower string) []string {
	var out []string
	for _, m := range salesTeamPattern.FindAllStringSubmatch(lower, -1) {
		for _, n := range m[1:] {
			if n != "" {
				out = append(out, "sales team size: "+n)
				break
			}
		}
	}
	return out
}

func matchDeployment(_, lower string) []string {
	var out []string
	if containsAny(lower, onPremKeywords) {
		out = append(out, "deployment: on-premise")
	} else if containsAny(lower, cloudKeywords) {
		out = append(out, "deployment: cloud")
	}
	return out
}

func matchDataResidency(_, lower string) []string {
	if containsAny(lower, residencyKeywords) {
		return []string{"data residency: China"}
	}
	return nil
}

func matchITCapability(_, lower string) []string {
	if containsAny(lower, noITKeywords) {
		return []string{"IT capability: no internal IT"}
	}
	return nil
}

func matchMandatoryClause(text, _ string) []string {
	var out []string
	for _, clause := range clauseSeparators.Split(text, -1) {
		clause = strings.TrimRight(strings.TrimSpace(clause), ".")
		if clause == "" || !containsAny(strings.ToLower(clause), mandatoryKeywords) {
			continue
		}
		out = append(out, truncateRunes(clause, maxClauseRunes))
	}
	return out
}

func matchBudget(text, lower string) []string {
	if !containsAny(lower, budgetKeywords) {
		return nil
	}
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	fact := "budget: " + strings.Join(strings.Fields(text[loc[0]:loc[1]]), "")
	if containsAny(strings.ToLower(clauseAround(text, loc[0], loc[1])), yearlyKeywords) {
		fact += "/year"
	}
	return []string{fact}
}

// matchTimeline keeps deadlines only; durations that already elapsed
// ("过去3个月", "for the past 3 months", "3个月前") are not timelines.
func matchTimeline(text, _ string) []string {
	var out []string
	for _, loc := range timelinePattern.FindAllStringIndex(text, -1) {
		before := strings.ToLower(clausePrefix(text[:loc[0]]))
		after := strings.ToLower(strings.TrimSpace(text[loc[1]:]))
		if containsAny(before, pastPrefixes) || strings.HasSuffix(strings.TrimSpace(before), "了") || hasPrefixAny(after, pastSuffixes) {
			continue
		}
		out = append(out, "timeline: "+strings.Join(strings.Fields(text[loc[0]:loc[1]]), " "))
	}
	return out
}

func matchCurrentTooling(_, lower string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range toolingKeywords {
		if k.generic && len(out) > 0 {
			break
		}
		if strings.Contains(lower, k.keyword) && !seen[k.label] {
			seen[k.label] = true
			out = append(out, "current tooling: "+k.label)
		}
	}
	return out
}

// clausePrefix returns the tail of s that belongs to the same clause as
// whatever follows it, looking back at most 16 runes.
func clausePrefix(s string) string {
	r := []rune(s)
	if len(r) > 16 {
		r = r[len(r)-16:]
	}
	tail := string(r)
	if i := strings.LastIndexAny(tail, "，,。;；、"); i >= 0 {
		_, size := utf8.DecodeRuneInString(tail[i:])
		tail = tail[i+size:]
	}
	return tail
}

// clauseAround returns the clause of text that contains text[start:end].
func clauseAround(text string, start, end int) string {
	from, to := 0, len(text)
	for _, sep := range clauseSeparators.FindAllStringIndex(text, -1) {
		if sep[1] <= start {
			from = sep[1]
		} else if sep[0] >= end {
			to = sep[0]
			break
		}
	}
	return text[from:to]
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
