package service

import "errors"

var ErrDuplicateRequestID = errors.New("request_id already exists")
