// Package auth implements the identity context: local verification of bearer
// credentials issued by the external identity authority, and context helpers
// to carry the verified caller through a request.
package auth
