package main

import (
	"database/sql"

	"github.com/akinalp/connectplus/repository"
)

// Repositories groups the pool-bound repositories.
// Services open their own transaction-bound copies for writes.
type Repositories struct {
	User          repository.UserRepository
	FriendRequest repository.FriendRequestRepository
	Friendship    repository.FriendshipRepository
	Chat          repository.ChatRepository
}

func initRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:          repository.NewSQLiteUserRepo(db),
		FriendRequest: repository.NewSQLiteFriendRequestRepo(db),
		Friendship:    repository.NewSQLiteFriendshipRepo(db),
		Chat:          repository.NewSQLiteChatRepo(db),
	}
}
