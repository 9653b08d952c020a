package duckduckgo

// Class names used by the html.duckduckgo.com result markup.
const (
	classResultLink = "result__a"   // <a> holding the redirect link and the title text
	classResultURL  = "result__url" // <a> holding the displayed link
	classAd         = "result--ad"  // container of a sponsored result
	redirectPath    = "/l/"         // DuckDuckGo click-through redirect
	redirectParam   = "uddg"        // query parameter carrying the target URL
)
