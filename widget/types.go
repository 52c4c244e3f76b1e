package widget

// AddressType distinguishes road-name (R) and lot-number (J) addresses.
type AddressType string

const (
	AddressRoad  AddressType = "R"
	AddressJibun AddressType = "J"
)

// Address is the payload delivered to OnComplete when the user selects an
// address. Field names follow the vendor's JSON keys.
type Address struct {
	Zonecode                string      `json:"zonecode"`
	Address                 string      `json:"address"`
	AddressEnglish          string      `json:"addressEnglish"`
	AddressType             AddressType `json:"addressType"`
	UserSelectedType        AddressType `json:"userSelectedType"`
	NoSelected              string      `json:"noSelected"`
	UserLanguageType        string      `json:"userLanguageType"`
	RoadAddress             string      `json:"roadAddress"`
	RoadAddressEnglish      string      `json:"roadAddressEnglish"`
	JibunAddress            string      `json:"jibunAddress"`
	JibunAddressEnglish     string      `json:"jibunAddressEnglish"`
	AutoRoadAddress         string      `json:"autoRoadAddress"`
	AutoRoadAddressEnglish  string      `json:"autoRoadAddressEnglish"`
	AutoJibunAddress        string      `json:"autoJibunAddress"`
	AutoJibunAddressEnglish string      `json:"autoJibunAddressEnglish"`
	BuildingCode            string      `json:"buildingCode"`
	BuildingName            string      `json:"buildingName"`
	Apartment               string      `json:"apartment"`
	Sido                    string      `json:"sido"`
	SidoEnglish             string      `json:"sidoEnglish"`
	Sigungu                 string      `json:"sigungu"`
	SigunguEnglish          string      `json:"sigunguEnglish"`
	SigunguCode             string      `json:"sigunguCode"`
	RoadnameCode            string      `json:"roadnameCode"`
	Bcode                   string      `json:"bcode"`
	Roadname                string      `json:"roadname"`
	RoadnameEnglish         string      `json:"roadnameEnglish"`
	Bname                   string      `json:"bname"`
	BnameEnglish            string      `json:"bnameEnglish"`
	Bname1                  string      `json:"bname1"`
	Bname1English           string      `json:"bname1English"`
	Bname2                  string      `json:"bname2"`
	Bname2English           string      `json:"bname2English"`
	Hname                   string      `json:"hname"`
	Query                   string      `json:"query"`
}

// IsApartment reports whether the selected building is an apartment.
func (a Address) IsApartment() bool {
	return a.Apartment == "Y"
}

// Size is delivered to OnResize when the embedded widget changes size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CloseState tells OnClose why the widget closed.
type CloseState string

const (
	// ForceClose means the widget was closed without a selection.
	ForceClose CloseState = "FORCE_CLOSE"
	// CompleteClose means the widget closed after an address was selected.
	CompleteClose CloseState = "COMPLETE_CLOSE"
)

// SearchData is delivered to OnSearch after each search.
type SearchData struct {
	Q     string `json:"q"`
	Count int    `json:"count"`
}

// Callback events, named after the vendor's raw callbacks without the "on"
// prefix.
const (
	EventComplete = "complete"
	EventResize   = "resize"
	EventClose    = "close"
	EventSearch   = "search"
)
