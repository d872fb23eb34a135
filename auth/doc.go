// Package auth glues the user database and the session store into the
// login/signup/logout/check operations the HTTP layer exposes.
//
// Passwords never touch the database. What gets stored is the output of
// Argon2id over the password and a random salt, encoded together with
// the parameters used to derive it, so parameters can be raised later
// without invalidating old records.
//
// Login deliberately answers "invalid username or password" for both an
// unknown username and a wrong password, and burns a hash verification
// even when the user does not exist, so the two failures cost roughly
// the same. Whoever is probing for valid usernames will have to find a
// cheaper oracle.
//
// A successful login or signup hands out a random session token (see
// the session package). If the token is lost the user just logs in
// again, tokens might be lost when they expire, the service restarts
// with an in-memory store, or the user logs out somewhere else.
package auth
