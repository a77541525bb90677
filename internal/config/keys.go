package config

type KeyMap struct {
	List   ListKeyMap   `toml:"list"`
	Detail DetailKeyMap `toml:"detail"`
	Search SearchKeyMap `toml:"search"`
}

type ListKeyMap struct {
	Up                []string `toml:"up"`
	Down              []string `toml:"down"`
	PageUp            []string `toml:"page_up"`
	PageDown          []string `toml:"page_down"`
	Open              []string `toml:"open"`
	ToggleRead        []string `toml:"toggle_read"`
	ToggleStar        []string `toml:"toggle_star"`
	ToggleSelect      []string `toml:"toggle_select"`
	ClearSelection    []string `toml:"clear_selection"`
	Delete            []string `toml:"delete"`
	NextFolder        []string `toml:"next_folder"`
	NextAccount       []string `toml:"next_account"`
	FilterUnread      []string `toml:"filter_unread"`
	FilterStarred     []string `toml:"filter_starred"`
	FilterAttachments []string `toml:"filter_attachments"`
	Search            []string `toml:"search"`
	Refresh           []string `toml:"refresh"`
	Help              []string `toml:"help"`
	Quit              []string `toml:"quit"`
}

type DetailKeyMap struct {
	Up          []string `toml:"up"`
	Down        []string `toml:"down"`
	ToggleRead  []string `toml:"toggle_read"`
	ToggleStar  []string `toml:"toggle_star"`
	OpenBrowser []string `toml:"open_browser"`
	Back        []string `toml:"back"`
	Help        []string `toml:"help"`
	Quit        []string `toml:"quit"`
}

type SearchKeyMap struct {
	Submit []string `toml:"submit"`
	Cancel []string `toml:"cancel"`
	Quit   []string `toml:"quit"`
}
