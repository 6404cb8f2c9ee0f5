package notify

import "errors"

var (
	ErrPreferenceLoad = errors.New("could not load notification preferences")
	ErrPreferenceSave = errors.New("could not save notification preferences")
)
