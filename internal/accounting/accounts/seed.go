package accounts

// chartNode describes one account in the default chart. Parent linkage is
// derived from the dotted code (the code minus its last segment).
type chartNode struct {
	Code    string
	Name    string
	Type    AccountType
	Subtype string
}

// defaultChart is the chart installed for every new organization. Order
// matters: parents precede children.
var defaultChart = []chartNode{
	{Code: "1", Name: "Activo", Type: AccountTypeAsset},
	{Code: "1.1", Name: "Caja y Bancos", Type: AccountTypeAsset, Subtype: "TREASURY"},
	{Code: "1.1.01", Name: "Caja", Type: AccountTypeAsset, Subtype: "CASH_BOX"},
	{Code: "1.1.02", Name: "Banco Cuenta Corriente", Type: AccountTypeAsset, Subtype: "BANK_ACCOUNT"},
	{Code: "1.2", Name: "Créditos por Ventas", Type: AccountTypeAsset},
	{Code: "1.2.01", Name: "Deudores por Obra", Type: AccountTypeAsset},
	{Code: "1.2.02", Name: "Cheques a Cobrar", Type: AccountTypeAsset},
	{Code: "2", Name: "Pasivo", Type: AccountTypeLiability},
	{Code: "2.1", Name: "Deudas Comerciales", Type: AccountTypeLiability},
	{Code: "2.1.01", Name: "Proveedores", Type: AccountTypeLiability},
	{Code: "2.1.02", Name: "Cheques a Pagar", Type: AccountTypeLiability},
	{Code: "2.2", Name: "Deudas Sociales", Type: AccountTypeLiability},
	{Code: "2.2.01", Name: "Sueldos a Pagar", Type: AccountTypeLiability},
	{Code: "3", Name: "Patrimonio Neto", Type: AccountTypeEquity},
	{Code: "3.1", Name: "Capital", Type: AccountTypeEquity},
	{Code: "4", Name: "Ingresos", Type: AccountTypeIncome},
	{Code: "4.1", Name: "Ingresos por Obra", Type: AccountTypeIncome},
	{Code: "4.1.01", Name: "Certificados de Obra", Type: AccountTypeIncome},
	{Code: "4.1.02", Name: "Cobranzas", Type: AccountTypeIncome},
	{Code: "5", Name: "Egresos", Type: AccountTypeExpense},
	{Code: "5.1", Name: "Costos de Obra", Type: AccountTypeExpense},
	{Code: "5.1.01", Name: "Materiales", Type: AccountTypeExpense},
	{Code: "5.1.02", Name: "Mano de Obra", Type: AccountTypeExpense},
	{Code: "5.1.03", Name: "Subcontratos", Type: AccountTypeExpense},
	{Code: "5.2", Name: "Gastos de Estructura", Type: AccountTypeExpense},
	{Code: "5.2.01", Name: "Sueldos y Jornales", Type: AccountTypeExpense},
	{Code: "5.2.02", Name: "Gastos Bancarios", Type: AccountTypeExpense},
}

// categoryMapping seeds the rubro -> account resolution table.
type categoryMapping struct {
	Category string
	IsIncome bool
	Code     string
}

var defaultMappings = []categoryMapping{
	{Category: "COLLECTION", IsIncome: true, Code: "4.1.02"},
	{Category: "CERTIFICATE", IsIncome: true, Code: "4.1.01"},
	{Category: "CHECK", IsIncome: true, Code: "4.1.02"},
	{Category: "MATERIALS", IsIncome: false, Code: "5.1.01"},
	{Category: "LABOR", IsIncome: false, Code: "5.1.02"},
	{Category: "SUBCONTRACT", IsIncome: false, Code: "5.1.03"},
	{Category: "PAYROLL", IsIncome: false, Code: "5.2.01"},
	{Category: "CHECK", IsIncome: false, Code: "5.2.02"},
}

func chartNodeByCode(code string) *chartNode {
	for i := range defaultChart {
		if defaultChart[i].Code == code {
			return &defaultChart[i]
		}
	}
	return nil
}
