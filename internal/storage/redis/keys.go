package redis

import "fmt"

// Key prefix for all chessrooms data
const keyPrefix = "chessrooms"

func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

// emailIndexKey maps email -> username
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// userIDIndexKey maps userId -> username
func userIDIndexKey(userID string) string {
	return fmt.Sprintf("%s:idx:user_id:%s", keyPrefix, userID)
}
