// Package models defines the conversation records delivered by the Omi API.
package models
