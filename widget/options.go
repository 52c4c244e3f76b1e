package widget

// Theme customises the widget's colours. Values are CSS colours.
type Theme struct {
	BgColor           string `json:"bgColor,omitempty"`
	SearchBgColor     string `json:"searchBgColor,omitempty"`
	ContentBgColor    string `json:"contentBgColor,omitempty"`
	PageBgColor       string `json:"pageBgColor,omitempty"`
	TextColor         string `json:"textColor,omitempty"`
	QueryTextColor    string `json:"queryTextColor,omitempty"`
	PostcodeTextColor string `json:"postcodeTextColor,omitempty"`
	EmphTextColor     string `json:"emphTextColor,omitempty"`
	OutlineColor      string `json:"outlineColor,omitempty"`
}

// Options is passed to Constructor.New. The callback fields are Go-side
// handlers; they are never serialised, and each Constructor implementation
// decides how to connect them to the vendor's raw oncomplete/onresize/
// onclose/onsearch callbacks.
type Options struct {
	// Key identifies the owner of the instance. Constructors that forward
	// callbacks out of process tag them with it.
	Key string `json:"-"`

	OnComplete func(Address)    `json:"-"`
	OnResize   func(Size)       `json:"-"`
	OnClose    func(CloseState) `json:"-"`
	OnSearch   func(SearchData) `json:"-"`

	// Width and Height accept a number (pixels) or a CSS length string.
	Width  any `json:"width,omitempty"`
	Height any `json:"height,omitempty"`

	Animation            *bool  `json:"animation,omitempty"`
	FocusInput           *bool  `json:"focusInput,omitempty"`
	AutoMapping          *bool  `json:"autoMapping,omitempty"`
	Shorthand            *bool  `json:"shorthand,omitempty"`
	PleaseReadGuide      int    `json:"pleaseReadGuide,omitempty"`
	PleaseReadGuideTimer int    `json:"pleaseReadGuideTimer,omitempty"`
	MaxSuggestItems      int    `json:"maxSuggestItems,omitempty"`
	ShowMoreHName        *bool  `json:"showMoreHName,omitempty"`
	HideMapBtn           *bool  `json:"hideMapBtn,omitempty"`
	HideEngBtn           *bool  `json:"hideEngBtn,omitempty"`
	AlwaysShowEngAddr    *bool  `json:"alwaysShowEngAddr,omitempty"`
	SubmitMode           *bool  `json:"submitMode,omitempty"`
	UseBannerLink        *bool  `json:"useBannerLink,omitempty"`
	Theme                *Theme `json:"theme,omitempty"`
}

// OpenOptions is passed to Instance.Open. Nil pointer fields are unset.
type OpenOptions struct {
	Q          *string `json:"q,omitempty"`
	Left       any     `json:"left,omitempty"`
	Top        any     `json:"top,omitempty"`
	PopupTitle string  `json:"popupTitle,omitempty"`
	PopupKey   string  `json:"popupKey,omitempty"`
	AutoClose  *bool   `json:"autoClose,omitempty"`
}

// EmbedOptions is passed to Instance.Embed.
type EmbedOptions struct {
	Q         *string `json:"q,omitempty"`
	AutoClose *bool   `json:"autoClose,omitempty"`
}

// Merge returns base with every field set in o taking precedence.
func (o OpenOptions) Merge(base OpenOptions) OpenOptions {
	out := base
	if o.Q != nil {
		out.Q = o.Q
	}
	if o.Left != nil {
		out.Left = o.Left
	}
	if o.Top != nil {
		out.Top = o.Top
	}
	if o.PopupTitle != "" {
		out.PopupTitle = o.PopupTitle
	}
	if o.PopupKey != "" {
		out.PopupKey = o.PopupKey
	}
	if o.AutoClose != nil {
		out.AutoClose = o.AutoClose
	}
	return out
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
