package provider

import "net/http"

// UserAgent mimics a desktop Chrome; the provider's edge filters non-browser clients.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func browserHeaders(referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", UserAgent)
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Connection", "keep-alive")
	h.Set("sec-ch-ua", `"Google Chrome";v="120", "Chromium";v="120", "Not-A.Brand";v="99"`)
	h.Set("sec-ch-ua-mobile", "?0")
	h.Set("sec-ch-ua-platform", `"macOS"`)
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

// DocumentHeaders are sent when navigating to an HTML page
func DocumentHeaders(referer string) http.Header {
	h := browserHeaders(referer)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// XHRHeaders are sent for the JSON endpoints a page calls from script
func XHRHeaders(referer string) http.Header {
	h := browserHeaders(referer)
	h.Set("Accept", "*/*")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

// ResourceHeaders are sent for static script resources
func ResourceHeaders(referer string) http.Header {
	h := browserHeaders(referer)
	h.Set("Accept", "*/*")
	h.Set("Sec-Fetch-Dest", "script")
	h.Set("Sec-Fetch-Mode", "no-cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	return h
}
