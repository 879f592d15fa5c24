// Package skins provides a client for resolving custom head textures.
//
// Case items may name their material with a prefixed identifier instead of
// a plain material id: "HEAD:<player>" for a player's own skin, and
// "HDB:<id>" or "CH:<id>" for entries in a head database. This client
// turns those identifiers into texture values the renderer can apply.
//
// # Basic Usage
//
//	client := skins.NewClient(&skins.ClientConfig{
//	    BaseURL: "https://mc-heads.net",
//	    APIKey:  "your-api-key",
//	})
//
//	tex, err := client.Resolve(ctx, "HEAD:Notch")
//
// Resolve returns (nil, nil) for plain materials, so callers can pass every
// material id through it unconditionally. Results are cached for the
// lifetime of the client.
//
// # Error Handling
//
// API errors are returned as *APIError with a Code field:
//
//	tex, err := client.Resolve(ctx, "HDB:23866")
//	if apiErr, ok := err.(*skins.APIError); ok {
//	    switch apiErr.Code {
//	    case skins.ErrNotFound:
//	        // Fall back to the default material
//	    case skins.ErrRateLimited:
//	        // Retry later
//	    }
//	}
package skins
