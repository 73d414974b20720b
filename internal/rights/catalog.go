package rights

// Keyword catalogs per category, in rotation order. The rotation cursor
// indexes into these slices, so order is part of persisted state and must
// stay stable across releases.
var catalogs = map[Category][]string{
	CategoryMedicalBeauty: {
		"医美维权", "整形失败", "医美退款", "医美投诉",
		"整容后悔", "医美纠纷", "注射失败", "整形退款",
		"医美诈骗", "双眼皮失败", "隆鼻失败", "注射事故",
		"医美后遗症", "医美协商", "整形医院投诉", "医美索赔",
	},
	CategoryMaleHealth: {
		"男科维权", "男科骗局", "男科退款", "保健品骗局",
		"男科医院投诉", "保健品退款", "男科产品退款", "男科虚假宣传",
		"男科欺诈", "前列腺骗局", "男性保健投诉", "男科药物退款",
		"男科治疗失败", "壮阳产品投诉", "男科产品投诉", "男科诈骗",
	},
	CategoryGeneralRights: {
		"消费维权", "退款维权", "商家欺骗", "消费陷阱",
		"消协投诉", "如何退款", "退款技巧", "消费者权益",
		"315投诉", "消费骗局", "行政投诉", "维权经验",
		"投诉有效", "索赔成功", "退款成功", "维权攻略",
	},
}

// Keywords returns the rotation catalog for a category. The returned slice
// is a copy; callers may reorder it freely.
func Keywords(c Category) []string {
	catalog := catalogs[c]
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogSize reports how many keywords a category rotates over.
func CatalogSize(c Category) int {
	return len(catalogs[c])
}
