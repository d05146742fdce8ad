package agent

const sqlPrompt = `Generate a SQLite query based on the user's question and database schema.

DATABASE SCHEMA:
%s

RULES:
1. Use only the tables and columns shown in the schema
2. Generate syntactically correct SQLite queries
3. Use appropriate JOINs when needed
4. Return only the SQL query, nothing else
5. Use proper column names (they use underscores, not spaces)

User question: %s`

const sqlAnswerPrompt = `Based on the SQL query results, provide a clear, natural language answer to the user's question.

User Question: %s
SQL Query: %s
Results: %s

Provide a helpful, conversational answer.`

const docsAnswerPrompt = `Based on the document search results, answer the user's question.

User Question: %s

Document Context:
%s

Provide a helpful answer based on the documents. If the documents don't contain enough information, say so.`
