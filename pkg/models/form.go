package models

// Field names as they appear on the wire and in the error map
const (
	FieldEmailID                 = "emailId"
	FieldPassword                = "password"
	FieldFirstName               = "firstName"
	FieldLastName                = "lastName"
	FieldAddress                 = "address"
	FieldCountryCode             = "countryCode"
	FieldPhoneNumber             = "phoneNumber"
	FieldAcceptTermsAndCondition = "acceptTermsAndCondition"
)

// DefaultCountryCode is preselected on a fresh form
const DefaultCountryCode = "+91"

// CountryCode is one selectable dial code
type CountryCode struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// CountryCodes lists the dial codes offered on the contact step
var CountryCodes = []CountryCode{
	{Code: "+91", Label: "India (+91)"},
	{Code: "+1", Label: "America (+1)"},
}

// Represents the data collected across the wizard steps
type FormData struct {
	EmailID                 string `json:"emailId"`
	Password                string `json:"password"`
	FirstName               string `json:"firstName"`
	LastName                string `json:"lastName"`
	Address                 string `json:"address"`
	CountryCode             string `json:"countryCode"`
	PhoneNumber             string `json:"phoneNumber"`
	AcceptTermsAndCondition bool   `json:"acceptTermsAndCondition"`
}

// NewFormData returns an empty form with the default dial code selected
func NewFormData() FormData {
	return FormData{CountryCode: DefaultCountryCode}
}

// Registration is the payload sent to the registration endpoint.
// The terms flag is a UI-only consent marker and is never sent.
type Registration struct {
	EmailID     string `json:"emailId"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address     string `json:"address"`
	CountryCode string `json:"countryCode"`
	PhoneNumber string `json:"phoneNumber"`
}

// Registration strips UI-only fields from the form
func (f FormData) Registration() Registration {
	return Registration{
		EmailID:     f.EmailID,
		Password:    f.Password,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Address:     f.Address,
		CountryCode: f.CountryCode,
		PhoneNumber: f.PhoneNumber,
	}
}
