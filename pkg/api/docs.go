// Package api serves the DonationIndexor HTTP and WebSocket surface.
// @title DonationIndexor API
// @version 1.0
// @description Health, wallet authentication, chain metadata and live donation subscriptions
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/DonationIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8000
// @basePath /
// @schemes http https
package api
