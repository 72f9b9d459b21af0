package model

import "context"

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type teacherCtxKey struct{}

// ContextWithTeacher stores the resolved teacher identity in the request
// context.
func ContextWithTeacher(ctx context.Context, t *Teacher) context.Context {
	return context.WithValue(ctx, teacherCtxKey{}, t)
}

// TeacherFromContext retrieves the teacher identity from context, or nil.
func TeacherFromContext(ctx context.Context) *Teacher {
	t, _ := ctx.Value(teacherCtxKey{}).(*Teacher)
	return t
}
