package server

import (
	"time"

	"github.com/dotside-studios/davi-card-agent/buildinfo"
)

// mDNS service discovery constants
var (
	MDNSServiceType = "_davi-card._tcp"
	MDNSServiceName = buildinfo.DisplayName
	MDNSDomain      = "local."
)

// CORS configuration
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "GET, OPTIONS"
	CORSAllowHeaders = "Content-Type, Authorization"
)

// WebSocket client limits
const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)
