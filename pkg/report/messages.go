package report

// messages is one report language.
type messages struct {
	title              string
	sessionID          string
	startTime          string
	tokenUsageSummary  string
	userInput          string
	filesRead          string
	filesWritten       string
	initialContext     string
	totalTokens        string
	contextWindowUsage string
	ofTokens           string
	tokens             string
	warning            string
	warningMessage     string
	note               string
	languageDetection  string
	japaneseContent    string
	calculatedAs       string
	calculatedAsSuffix string
	japanese           string
	english            string
	detailedBreakdown  string
	userInputs         string
	filesReadList      string
	filesWrittenList   string
	estimated          string
}

var english = messages{
	title:              "Claude Code Token Usage Report",
	sessionID:          "Session ID",
	startTime:          "Start Time",
	tokenUsageSummary:  "Token Usage Summary",
	userInput:          "User Input",
	filesRead:          "Files Read",
	filesWritten:       "Files Written",
	initialContext:     "Initial Context",
	totalTokens:        "Total Tokens",
	contextWindowUsage: "Context Window Usage",
	ofTokens:           "of",
	tokens:             "tokens",
	warning:            "WARNING: Context window usage is above",
	warningMessage:     "Old conversation history may be dropped soon.",
	note:               "Note: Context window usage is above",
	languageDetection:  "Language Detection",
	japaneseContent:    "Japanese Content",
	calculatedAs:       "(calculated as ",
	calculatedAsSuffix: ")",
	japanese:           "Japanese",
	english:            "English",
	detailedBreakdown:  "Detailed Breakdown",
	userInputs:         "User Inputs",
	filesReadList:      "Files Read",
	filesWrittenList:   "Files Written",
	estimated:          "estimated",
}

var japanese = messages{
	title:              "Claude Code トークン使用状況レポート",
	sessionID:          "セッションID",
	startTime:          "開始時刻",
	tokenUsageSummary:  "トークン使用状況サマリー",
	userInput:          "ユーザー入力",
	filesRead:          "ファイル読み込み",
	filesWritten:       "ファイル書き込み",
	initialContext:     "初期コンテキスト",
	totalTokens:        "合計トークン",
	contextWindowUsage: "コンテキストウィンドウ使用率",
	ofTokens:           "/",
	tokens:             "トークン",
	warning:            "警告: コンテキストウィンドウ使用率が",
	warningMessage:     "古い会話履歴が削除される可能性があります。",
	note:               "注意: コンテキストウィンドウ使用率が",
	languageDetection:  "言語判定",
	japaneseContent:    "日本語コンテンツ",
	calculatedAs:       "(",
	calculatedAsSuffix: "として計算)",
	japanese:           "日本語",
	english:            "英語",
	detailedBreakdown:  "詳細内訳",
	userInputs:         "ユーザー入力",
	filesReadList:      "読み込みファイル",
	filesWrittenList:   "書き込みファイル",
	estimated:          "推定",
}

// messagesFor returns the table for lang, falling back to English.
func messagesFor(lang string) *messages {
	if lang == "ja" {
		return &japanese
	}
	return &english
}
