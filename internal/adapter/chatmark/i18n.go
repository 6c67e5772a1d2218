package chatmark

import "strings"

// Lang is the language of user-facing workflow messages.
type Lang string

const (
	LangEN Lang = "en"
	LangZH Lang = "zh"
)

// ParseLang maps an IDE language code such as "zh-CN" to a Lang. Anything
// unrecognized is English.
func ParseLang(s string) Lang {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "zh") {
		return LangZH
	}
	return LangEN
}

// ChatLanguage is the language the model is asked to answer in.
func (l Lang) ChatLanguage() string {
	if l == LangZH {
		return "Simplified Chinese"
	}
	return "English"
}

// Message keys.
const (
	MsgAnalyzing           = "analyzing"
	MsgAnalyzingContext    = "analyzing_context"
	MsgFindingReferences   = "finding_references"
	MsgProposingCases      = "proposing_cases"
	MsgSelectCases         = "select_cases"
	MsgAddCases            = "add_cases"
	MsgEditReference       = "edit_reference"
	MsgRequirements        = "requirements"
	MsgNoCaseSelected      = "no_case_selected"
	MsgSummaryTitle        = "summary_title"
	MsgSummaryCases        = "summary_cases"
	MsgNoReference         = "no_reference"
	MsgUseReferences       = "use_references"
	MsgSummaryRequirements = "summary_requirements"
	MsgNoRequirements      = "no_requirements"
	MsgAdditionalContext   = "additional_context"
	MsgBudgetExceeded      = "budget_exceeded"
	MsgConnectionError     = "connection_error"
	MsgWritingTests        = "writing_tests"
	MsgApplied             = "applied"
)

var catalog = map[Lang]map[string]string{
	LangEN: {
		MsgAnalyzing:           "Analyzing the function and current unit tests...",
		MsgAnalyzingContext:    "- Analyzing context for the function...",
		MsgFindingReferences:   "- Finding reference files...",
		MsgProposingCases:      "- Proposing test cases...",
		MsgSelectCases:         "Select test cases to generate",
		MsgAddCases:            "You can add more test cases here\n(Multiple cases can be separated by line breaks)",
		MsgEditReference:       "Edit reference test file\n(Multiple files can be separated by line breaks)",
		MsgRequirements:        "Write your customized requirements(prompts) for tests here.\n(For example, what testing framework to use.)",
		MsgNoCaseSelected:      "No test case is selected. Quit generating tests.",
		MsgSummaryTitle:        "Will generate tests for the following cases.",
		MsgSummaryCases:        "\nTest cases:",
		MsgNoReference:         "\nNo valid reference file is provided. Will not use reference to generate tests.",
		MsgUseReferences:       "\nWill use the following reference files to generate tests.",
		MsgSummaryRequirements: "\nCustomized requirements(prompts):",
		MsgNoRequirements:      "No customized requirements.",
		MsgAdditionalContext:   "\nAdditional context:",
		MsgBudgetExceeded:      "The function's size surpasses AI's context capacity.",
		MsgConnectionError:     "Model API connection error. Please try again later.",
		MsgWritingTests:        "Writing tests...",
		MsgApplied:             "Applied the generated tests to",
	},
	LangZH: {
		MsgAnalyzing:           "正在分析函数和现有的单元测试...",
		MsgAnalyzingContext:    "- 正在分析函数的上下文...",
		MsgFindingReferences:   "- 正在查找参考文件...",
		MsgProposingCases:      "- 正在生成测试用例...",
		MsgSelectCases:         "选择要生成的测试用例",
		MsgAddCases:            "可以在这里补充更多测试用例\n（多个用例请用换行分隔）",
		MsgEditReference:       "编辑参考测试文件\n（多个文件请用换行分隔）",
		MsgRequirements:        "在这里填写对测试的自定义要求（提示词）。\n（例如使用哪种测试框架。）",
		MsgNoCaseSelected:      "未选择任何测试用例，停止生成测试。",
		MsgSummaryTitle:        "将为以下用例生成测试。",
		MsgSummaryCases:        "\n测试用例：",
		MsgNoReference:         "\n未提供有效的参考文件，生成测试时将不使用参考。",
		MsgUseReferences:       "\n将使用以下参考文件生成测试。",
		MsgSummaryRequirements: "\n自定义要求（提示词）：",
		MsgNoRequirements:      "无自定义要求。",
		MsgAdditionalContext:   "\n附加上下文：",
		MsgBudgetExceeded:      "函数的大小超出了 AI 的上下文容量。",
		MsgConnectionError:     "模型 API 连接错误，请稍后重试。",
		MsgWritingTests:        "正在编写测试...",
		MsgApplied:             "已将生成的测试应用到",
	},
}

// T returns the message for key in l, falling back to English and then to the key.
func (l Lang) T(key string) string {
	if msg, ok := catalog[l][key]; ok {
		return msg
	}
	if msg, ok := catalog[LangEN][key]; ok {
		return msg
	}
	return key
}
