// Package omi is the client for the Omi developer API.
//
// Client.ListConversations pages through /user/conversations with the
// transcript included until a short or empty page is returned. Requests are
// paced, and a 429 response is retried after the Retry-After delay.
//
// Any other failure aborts the whole listing: a partial listing would look
// like deleted conversations to the sync engine.
//
// # Usage
//
//	client := omi.NewClient(cfg.Omi, log)
//	conversations, err := client.ListConversations(ctx)
package omi
