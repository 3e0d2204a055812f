package model

// 资源类型：四种可消耗的功能额度
const (
	KindOptimization    = "optimization"     // JD 优化
	KindScoreCheck      = "score_check"      // 简历评分
	KindLinkedinMessage = "linkedin_message" // LinkedIn 私信生成
	KindGuidedBuild     = "guided_build"     // 引导式简历创建
)

// ResourceKinds 所有合法的资源类型
var ResourceKinds = []string{
	KindOptimization,
	KindScoreCheck,
	KindLinkedinMessage,
	KindGuidedBuild,
}

// IsValidKind 校验资源类型
func IsValidKind(kind string) bool {
	for _, k := range ResourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}
