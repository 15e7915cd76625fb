package testutil

import "github.com/InyerM/spends-assistant-web-sub000/internal/model"

// AccountName is a strongly-typed fixture account name.
type AccountName string

// CategoryName is a strongly-typed fixture category name.
type CategoryName string

// Fixture account names.
const (
	AccountBancolombia AccountName = "Bancolombia Ahorros"
	AccountNequi       AccountName = "Nequi"
	AccountDavivienda  AccountName = "Davivienda Cuenta"
	AccountCash        AccountName = "Efectivo"
)

// Fixture category names.
const (
	CategoryFood      CategoryName = "Food & Dining"
	CategoryTransport CategoryName = "Transportation"
	CategorySalary    CategoryName = "Salary"
	CategoryTransfers CategoryName = "Transfers"
)

// StandardAccounts is the account set most tests seed. Bancolombia is the
// default account.
func StandardAccounts() []model.Account {
	return []model.Account{
		{Name: string(AccountBancolombia), Institution: "Bancolombia", LastFour: "1234", Type: model.AccountSavings, IsDefault: true, IsActive: true},
		{Name: string(AccountNequi), Institution: "Nequi", LastFour: "9876", Type: model.AccountWallet, IsActive: true},
		{Name: string(AccountDavivienda), Institution: "Davivienda", LastFour: "5555", Type: model.AccountChecking, IsActive: true},
		{Name: string(AccountCash), Type: model.AccountCash, IsActive: true},
	}
}

// StandardCategories is the category set most tests seed.
func StandardCategories() []model.Category {
	return []model.Category{
		{Name: string(CategoryFood), Type: model.CategoryTypeExpense},
		{Name: string(CategoryTransport), Type: model.CategoryTypeExpense},
		{Name: string(CategorySalary), Type: model.CategoryTypeIncome},
		{Name: string(CategoryTransfers), Type: model.CategoryTypeSystem},
	}
}
