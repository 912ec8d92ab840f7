// Package httpserver hosts the HTTP surface of one DreamCanvas service: the
// listener lifecycle, CORS, request ids and access logging. Routes come from
// the controllers package.
//
// Example:
//
//	ctrls, _ := controllers.ForService("voting-service", rt, logger)
//	s := httpserver.New("voting-service", logger, ctrls...)
//	_ = s.ListenAndServe(ctx, ":5005")
package httpserver
