package dispatch

// commandUsage maps each user-facing verb to its one-line usage string,
// rendered by HLP. REG, LOG and HEART are internal to the client flows and
// deliberately absent.
var commandUsage = map[string]string{
	"CRT": "Usage: CRT threadtitle",
	"LST": "Usage: LST",
	"MSG": "Usage: MSG threadtitle message",
	"EDT": "Usage: EDT threadtitle messagenumber message",
	"DLT": "Usage: DLT threadtitle messagenumber",
	"RDT": "Usage: RDT threadtitle",
	"UPD": "Usage: UPD threadtitle filename",
	"DWN": "Usage: DWN threadtitle filename",
	"RMV": "Usage: RMV threadtitle",
	"XIT": "Usage: XIT",
	"HLP": "Usage: HLP [command]",
}

// commandOrder fixes the HLP listing order.
var commandOrder = []string{"CRT", "LST", "MSG", "EDT", "DLT", "RDT", "UPD", "DWN", "RMV", "XIT", "HLP"}
