package i18n

// Key identifies a message in the catalogs.
type Key string

// Feature names.
const (
	FeatureRoundedName  Key = "feature.rounded.name"
	FeaturePurpleName   Key = "feature.purple.name"
	FeatureGradientName Key = "feature.gradient.name"
	FeatureButtonsName  Key = "feature.buttons.name"
	FeatureKeywordsName Key = "feature.keywords.name"
)

// Feature descriptions. Each takes the raw counts as format arguments.
const (
	FeatureRoundedDesc  Key = "feature.rounded.desc"
	FeaturePurpleDesc   Key = "feature.purple.desc"
	FeatureGradientDesc Key = "feature.gradient.desc"
	FeatureButtonsDesc  Key = "feature.buttons.desc"
	FeatureKeywordsDesc Key = "feature.keywords.desc"
)

// Analysis details.
const (
	DetailsAnalyzed       Key = "details.analyzed"
	DetailsDetectedHeader Key = "details.detected_header"
	DetailsFeatureLine    Key = "details.feature_line"
	DetailsNoneDetected   Key = "details.none_detected"
	DetailsHighConfidence Key = "details.high_confidence"
	DetailsFailed         Key = "details.failed"
)

// Confidence labels.
const (
	ConfidenceLow    Key = "confidence.low"
	ConfidenceMedium Key = "confidence.medium"
	ConfidenceHigh   Key = "confidence.high"
)

// Score tiers and report labels.
const (
	TierHigh   Key = "tier.high"
	TierMedium Key = "tier.medium"
	TierLow    Key = "tier.low"

	ReportTitle      Key = "report.title"
	ReportScore      Key = "report.score"
	ReportURL        Key = "report.url"
	ReportPageTitle  Key = "report.page_title"
	ReportTime       Key = "report.time"
	ReportFeatures   Key = "report.features"
	ReportDetails    Key = "report.details"
	ReportFeature    Key = "report.feature"
	ReportDetected   Key = "report.detected"
	ReportConfidence Key = "report.confidence"
	ReportPoints     Key = "report.points"
	ReportBreakdown  Key = "report.breakdown"
	ReportYes        Key = "report.yes"
	ReportNo         Key = "report.no"
	ReportNoRecords  Key = "report.no_records"
	ReportFailed     Key = "report.failed"
	ReportID         Key = "report.id"

	CompareTitle    Key = "compare.title"
	CompareBefore   Key = "compare.before"
	CompareAfter    Key = "compare.after"
	CompareDelta    Key = "compare.delta"
	ComparePageDiff Key = "compare.page_changed"
	ComparePageSame Key = "compare.page_unchanged"
)

var catalogs = map[Language]map[Key]string{
	ZhCN: {
		FeatureRoundedName:  "大圆角设计",
		FeaturePurpleName:   "紫色配色方案",
		FeatureGradientName: "渐变背景",
		FeatureButtonsName:  "现代化按钮样式",
		FeatureKeywordsName: "AI相关关键词",

		FeatureRoundedDesc:  "检测到 %d 个大圆角元素，平均圆角半径 %dpx",
		FeaturePurpleDesc:   "检测到 %d 个紫色元素，紫色覆盖率 %d%%",
		FeatureGradientDesc: "检测到 %d 个渐变背景元素",
		FeatureButtonsDesc:  "检测到 %d 个现代化样式按钮",
		FeatureKeywordsDesc: "检测到 %d 个AI相关关键词: %s",

		DetailsAnalyzed:       "分析了 %d 个页面元素。",
		DetailsDetectedHeader: "检测到 %d 个AI设计特征:",
		DetailsFeatureLine:    "• %s (%s置信度): %s",
		DetailsNoneDetected:   "未检测到明显的AI设计特征。",
		DetailsHighConfidence: "高置信度特征 (%d个) 表明该网站具有较强的AI设计风格。",
		DetailsFailed:         "分析失败: %s",

		ConfidenceLow:    "低",
		ConfidenceMedium: "中等",
		ConfidenceHigh:   "高",

		TierHigh:   "AI味浓郁",
		TierMedium: "略带AI味",
		TierLow:    "AI味较淡",

		ReportTitle:      "AI味检测报告",
		ReportScore:      "AI味评分",
		ReportURL:        "网址",
		ReportPageTitle:  "页面标题",
		ReportTime:       "检测时间",
		ReportFeatures:   "设计特征",
		ReportDetails:    "分析详情",
		ReportFeature:    "特征",
		ReportDetected:   "已检测",
		ReportConfidence: "置信度",
		ReportPoints:     "得分",
		ReportBreakdown:  "得分构成",
		ReportYes:        "是",
		ReportNo:         "否",
		ReportNoRecords:  "暂无检测记录",
		ReportFailed:     "检测失败",
		ReportID:         "记录ID",

		CompareTitle:    "检测结果对比",
		CompareBefore:   "之前",
		CompareAfter:    "之后",
		CompareDelta:    "变化",
		ComparePageDiff: "页面内容已变化",
		ComparePageSame: "页面内容未变化，评分变化来自检测规则",
	},
	EnUS: {
		FeatureRoundedName:  "Large rounded corners",
		FeaturePurpleName:   "Purple color scheme",
		FeatureGradientName: "Gradient backgrounds",
		FeatureButtonsName:  "Modern button styling",
		FeatureKeywordsName: "AI-related keywords",

		FeatureRoundedDesc:  "%d elements with large rounded corners, average radius %dpx",
		FeaturePurpleDesc:   "%d purple elements, purple coverage %d%%",
		FeatureGradientDesc: "%d elements with gradient backgrounds",
		FeatureButtonsDesc:  "%d buttons with modern styling",
		FeatureKeywordsDesc: "%d AI-related keywords: %s",

		DetailsAnalyzed:       "%d elements analyzed.",
		DetailsDetectedHeader: "%d AI design features detected:",
		DetailsFeatureLine:    "• %s (%s confidence): %s",
		DetailsNoneDetected:   "No features detected that suggest an AI-generated design.",
		DetailsHighConfidence: "%d high-confidence features indicate a strong AI design style.",
		DetailsFailed:         "Analysis failed: %s",

		ConfidenceLow:    "low",
		ConfidenceMedium: "medium",
		ConfidenceHigh:   "high",

		TierHigh:   "Strong AI flavor",
		TierMedium: "Some AI flavor",
		TierLow:    "Little AI flavor",

		ReportTitle:      "AI Flavor Report",
		ReportScore:      "AI flavor score",
		ReportURL:        "URL",
		ReportPageTitle:  "Page title",
		ReportTime:       "Detected at",
		ReportFeatures:   "Design features",
		ReportDetails:    "Details",
		ReportFeature:    "Feature",
		ReportDetected:   "Detected",
		ReportConfidence: "Confidence",
		ReportPoints:     "Points",
		ReportBreakdown:  "Score breakdown",
		ReportYes:        "yes",
		ReportNo:         "no",
		ReportNoRecords:  "No detection records",
		ReportFailed:     "Detection failed",
		ReportID:         "Record ID",

		CompareTitle:    "Detection comparison",
		CompareBefore:   "Before",
		CompareAfter:    "After",
		CompareDelta:    "Change",
		ComparePageDiff: "Page content changed",
		ComparePageSame: "Page content unchanged; score changes come from the detection rules",
	},
}
