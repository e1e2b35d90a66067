package signal

func (ctl *Controller) handlePing(c *WsConn) {
	ctl.sendJSON(c, pongMsg{Type: evPong})
}
