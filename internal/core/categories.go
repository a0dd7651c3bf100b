package core

// CategoryKind says which transaction types a category applies to.
type CategoryKind string

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
	KindBoth    CategoryKind = "both"
)

// Category is a suggested label offered when recording a transaction.
type Category struct {
	Name  string       `json:"name"`
	Type  CategoryKind `json:"type"`
	Color string       `json:"color"`
}

// AppliesTo reports whether the category can be used for t.
func (c Category) AppliesTo(t TransactionType) bool {
	return c.Type == KindBoth || string(c.Type) == string(t)
}

// GetDefaultCategories returns a fresh copy of the built-in category list.
func GetDefaultCategories() []Category {
	return []Category{
		{Name: "Salary", Type: KindIncome, Color: "#10B981"},
		{Name: "Business", Type: KindIncome, Color: "#3B82F6"},
		{Name: "Freelance", Type: KindIncome, Color: "#8B5CF6"},
		{Name: "Investment", Type: KindIncome, Color: "#06B6D4"},
		{Name: "Rental Income", Type: KindIncome, Color: "#84CC16"},
		{Name: "Food & Dining", Type: KindExpense, Color: "#EF4444"},
		{Name: "Groceries", Type: KindExpense, Color: "#F97316"},
		{Name: "Transportation", Type: KindExpense, Color: "#F59E0B"},
		{Name: "Rent", Type: KindExpense, Color: "#6366F1"},
		{Name: "Bills & Utilities", Type: KindExpense, Color: "#0EA5E9"},
		{Name: "Shopping", Type: KindExpense, Color: "#EC4899"},
		{Name: "Entertainment", Type: KindExpense, Color: "#A855F7"},
		{Name: "Healthcare", Type: KindExpense, Color: "#14B8A6"},
		{Name: "Education", Type: KindExpense, Color: "#22C55E"},
		{Name: "Travel", Type: KindExpense, Color: "#EAB308"},
		{Name: "Gifts", Type: KindBoth, Color: "#F43F5E"},
		{Name: "Other", Type: KindBoth, Color: "#6B7280"},
	}
}

// CategoriesFor returns the default categories usable for t, in list order.
func CategoriesFor(t TransactionType) []Category {
	var out []Category
	for _, c := range GetDefaultCategories() {
		if c.AppliesTo(t) {
			out = append(out, c)
		}
	}
	return out
}
