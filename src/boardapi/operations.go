package boardapi

// Operation is one of the fixed GraphQL documents the board service accepts.
// Field is the root field the response data is keyed by.
type Operation struct {
	Name     string
	Field    string
	Document string
	Mutation bool
}

var (
	OpGetBoardPosts = Operation{
		Name:  "GetBoardPosts",
		Field: "getBoardPosts",
		Document: `query GetBoardPosts($page: Float!, $limit: Float!) {
  getBoardPosts(page: $page, limit: $limit) {
    posts {
      id
      title
      content
      createdAt
    }
    totalCount
  }
}`,
	}

	OpGetBoardPostById = Operation{
		Name:  "GetBoardPostById",
		Field: "getBoardPostById",
		Document: `query GetBoardPostById($id: String!) {
  getBoardPostById(id: $id) {
    id
    title
    content
    createdAt
  }
}`,
	}

	OpCreateBoardPost = Operation{
		Name:     "CreateBoardPost",
		Field:    "createBoardPost",
		Mutation: true,
		Document: `mutation CreateBoardPost($title: String!, $content: String!, $password: String!) {
  createBoardPost(title: $title, content: $content, password: $password) {
    title
    content
  }
}`,
	}

	OpDeletePost = Operation{
		Name:     "DeletePost",
		Field:    "deletePost",
		Mutation: true,
		Document: `mutation DeletePost($postId: String!, $password: String!) {
  deletePost(postId: $postId, password: $password)
}`,
	}

	OpGetComments = Operation{
		Name:  "GetComments",
		Field: "getComments",
		Document: `query GetComments($postId: String!) {
  getComments(postId: $postId) {
    id
    content
    createdAt
    reply
    parentId
    depth
    replyTo
  }
}`,
	}

	OpAddCommentToPost = Operation{
		Name:     "CreateCommentToPost",
		Field:    "addCommentToPost",
		Mutation: true,
		Document: `mutation CreateCommentToPost($postId: String!, $content: String!, $password: String!) {
  addCommentToPost(postId: $postId, content: $content, password: $password) {
    id
    content
    createdAt
  }
}`,
	}

	OpCreateReply = Operation{
		Name:     "CreateReply",
		Field:    "createReply",
		Mutation: true,
		Document: `mutation CreateReply($commentId: String!, $content: String!, $password: String!, $replyTo: String!) {
  createReply(commentId: $commentId, content: $content, password: $password, replyTo: $replyTo) {
    id
    content
    createdAt
    replyTo
  }
}`,
	}

	OpDeleteComment = Operation{
		Name:     "DeleteComment",
		Field:    "deleteComment",
		Mutation: true,
		Document: `mutation DeleteComment($commentId: String!, $password: String!) {
  deleteComment(commentId: $commentId, password: $password)
}`,
	}
)

// Operations lists every operation, keyed by operation name.
var Operations = map[string]Operation{
	OpGetBoardPosts.Name:    OpGetBoardPosts,
	OpGetBoardPostById.Name: OpGetBoardPostById,
	OpCreateBoardPost.Name:  OpCreateBoardPost,
	OpDeletePost.Name:       OpDeletePost,
	OpGetComments.Name:      OpGetComments,
	OpAddCommentToPost.Name: OpAddCommentToPost,
	OpCreateReply.Name:      OpCreateReply,
	OpDeleteComment.Name:    OpDeleteComment,
}
