// Package users manages organizational accounts and their credential
// lifecycle: authentication with signed bearer tokens, time-bound
// single-use verification codes gating password resets, self-service
// password changes behind a must-change flag, and guarded role and
// account administration.
//
// Credential lifecycle:
//   - Authenticator verifies a username/password pair, refuses disabled
//     accounts, records the login instant, and issues an HS256 JWT whose
//     subject is the username and whose claims carry the account's roles.
//   - VerificationIssuer manages the 6-digit reset codes: at most one
//     live code per email, expired codes are superseded in place, and a
//     code is only consumed inside the same transaction that writes the
//     new password.
//   - ChangePasswordHandler applies a pending password change for
//     accounts flagged with PasswordNeedsChange, clearing the flag.
//
// Authorization guards:
//   - Guard protects SUPER_ADMIN accounts from deletion and role
//     stripping, keeps the baseline USER role on every account, and
//     refuses deletion of the four seeded default roles. Bulk operations
//     silently skip protected records and report what was deleted.
//
// Notifications run through a bounded fire-and-forget Dispatcher: no
// lifecycle operation ever waits on, or fails because of, mail delivery.
package users
