package config

// Drug is one entry of the fixed evaluation list.
type Drug struct {
	Name  string
	Class string
}

// DefaultDrugList returns the blood-pressure medications every report
// evaluates. The list is fixed at the code level and is not user
// configurable per request.
func DefaultDrugList() []Drug {
	return []Drug{
		{Name: "Lisinopril", Class: "ACE Inhibitor"},
		{Name: "Losartan", Class: "ARB"},
		{Name: "Amlodipine", Class: "Calcium Channel Blocker"},
		{Name: "Metoprolol", Class: "Beta-Blocker"},
		{Name: "Hydrochlorothiazide", Class: "Diuretic"},
	}
}
