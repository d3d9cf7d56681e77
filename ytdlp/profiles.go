package ytdlp

// Profile is one extraction client identity. Rotating identities works
// around per-client throttling and gated responses.
type Profile struct {
	// PlayerClients is passed verbatim as the extractor's player_client
	// argument and may name more than one client.
	PlayerClients string
}

// profileCatalog is the fixed rotation order. Embedded clients come after
// their plain counterparts since they fail on age-gated content.
var profileCatalog = []Profile{
	{PlayerClients: "android"},
	{PlayerClients: "android_embedded"},
	{PlayerClients: "web_embedded,android"},
	{PlayerClients: "mweb"},
}

// androidUserAgent matches the first profile's client so header and
// player_client stay consistent.
const androidUserAgent = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"
